package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wudi/cardkit/observability"
)

// DefaultBaseURL is the public Scryfall API root.
const DefaultBaseURL = "https://api.scryfall.com"

// DefaultTimeout bounds a single catalog request. An elapsed timeout is a
// lookup failure, not a crash.
const DefaultTimeout = 5 * time.Second

// Client is a read-only Scryfall API client. Callers are responsible for
// throttling; the Matcher wires every call through the shared Limiter.
type Client struct {
	base   *url.URL
	client *http.Client
	log    observability.Logger
}

// NewClient builds a catalog client. A nil httpClient gets a client with
// DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client, log observability.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Client{base: u, client: httpClient, log: log}, nil
}

// NamedFuzzy resolves a card by fuzzy name match. Returns ErrNotFound when
// the catalog has no plausible card for the name.
func (c *Client) NamedFuzzy(ctx context.Context, name string) (Card, error) {
	q := url.Values{"fuzzy": {name}}
	var sc scryfallCard
	if err := c.get(ctx, "/cards/named", q, &sc); err != nil {
		return Card{}, err
	}
	return sc.toCard(), nil
}

// ByID fetches a card by its catalog identifier.
func (c *Client) ByID(ctx context.Context, id string) (Card, error) {
	var sc scryfallCard
	if err := c.get(ctx, "/cards/"+url.PathEscape(id), nil, &sc); err != nil {
		return Card{}, err
	}
	return sc.toCard(), nil
}

// Search returns up to limit cards whose names match query, ordered by name.
// A query with no hits returns an empty slice, not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Card, error) {
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{
		"q":      {"name:" + query},
		"order":  {"name"},
		"unique": {"cards"},
	}
	var list struct {
		Data       []scryfallCard `json:"data"`
		TotalCards int            `json:"total_cards"`
	}
	err := c.get(ctx, "/cards/search", q, &list)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(list.Data) > limit {
		list.Data = list.Data[:limit]
	}
	cards := make([]Card, 0, len(list.Data))
	for _, sc := range list.Data {
		cards = append(cards, sc.toCard())
	}
	return cards, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("catalog status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

// scryfallCard mirrors the fields of the Scryfall card schema the pipeline
// cares about. Prices arrive as decimal strings or null.
type scryfallCard struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Set             string            `json:"set"`
	SetName         string            `json:"set_name"`
	CollectorNumber string            `json:"collector_number"`
	Rarity          string            `json:"rarity"`
	ManaCost        string            `json:"mana_cost"`
	TypeLine        string            `json:"type_line"`
	OracleText      string            `json:"oracle_text"`
	ScryfallURI     string            `json:"scryfall_uri"`
	ImageURIs       map[string]string `json:"image_uris"`
	CardFaces       []struct {
		ImageURIs map[string]string `json:"image_uris"`
	} `json:"card_faces"`
	Prices map[string]*string `json:"prices"`
}

func (sc scryfallCard) toCard() Card {
	imgs := sc.ImageURIs
	// Double-faced cards keep their images on the first face.
	if len(imgs) == 0 && len(sc.CardFaces) > 0 {
		imgs = sc.CardFaces[0].ImageURIs
	}
	image := imgs["normal"]
	if image == "" {
		image = imgs["small"]
	}
	if image == "" {
		image = imgs["large"]
	}

	price := parsePrice(sc.Prices["usd"])
	foil := parsePrice(sc.Prices["usd_foil"])
	if price == nil {
		price = foil
	}

	return Card{
		ID:              sc.ID,
		Name:            sc.Name,
		SetCode:         sc.Set,
		SetName:         sc.SetName,
		CollectorNumber: sc.CollectorNumber,
		Rarity:          sc.Rarity,
		ManaCost:        sc.ManaCost,
		TypeLine:        sc.TypeLine,
		OracleText:      sc.OracleText,
		ImageURL:        image,
		ScryfallURL:     sc.ScryfallURI,
		Price:           price,
		PriceFoil:       foil,
	}
}

func parsePrice(s *string) *float64 {
	if s == nil {
		return nil
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return &v
}
