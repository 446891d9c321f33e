package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const boltJSON = `{
	"id": "abc-123",
	"name": "Lightning Bolt",
	"set": "lea",
	"set_name": "Limited Edition Alpha",
	"collector_number": "161",
	"rarity": "common",
	"mana_cost": "{R}",
	"type_line": "Instant",
	"oracle_text": "Lightning Bolt deals 3 damage to any target.",
	"scryfall_uri": "https://scryfall.com/card/lea/161",
	"image_uris": {"normal": "https://img.example/bolt.jpg"},
	"prices": {"usd": "349.99", "usd_foil": null}
}`

func TestNamedFuzzy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/named" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("fuzzy"); got != "lightning bolt" {
			t.Fatalf("fuzzy = %q", got)
		}
		w.Write([]byte(boltJSON))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	card, err := c.NamedFuzzy(context.Background(), "lightning bolt")
	if err != nil {
		t.Fatalf("NamedFuzzy() error = %v", err)
	}
	if card.Name != "Lightning Bolt" || card.SetCode != "lea" || card.Rarity != "common" {
		t.Fatalf("card = %+v", card)
	}
	if card.ImageURL != "https://img.example/bolt.jpg" {
		t.Fatalf("image = %q", card.ImageURL)
	}
	if card.Price == nil || *card.Price != 349.99 {
		t.Fatalf("price = %v", card.Price)
	}
	if card.PriceFoil != nil {
		t.Fatalf("foil price should be nil, got %v", *card.PriceFoil)
	}
}

func TestNamedFuzzyNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"object":"error"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, nil, nil)
	_, err := c.NamedFuzzy(context.Background(), "xyzzy")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestDoubleFacedImageFallback(t *testing.T) {
	payload := `{
		"id": "dfc-1",
		"name": "Delver of Secrets // Insectile Aberration",
		"set": "isd",
		"card_faces": [{"image_uris": {"normal": "https://img.example/front.jpg"}}],
		"prices": {}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, nil, nil)
	card, err := c.NamedFuzzy(context.Background(), "delver of secrets")
	if err != nil {
		t.Fatalf("NamedFuzzy() error = %v", err)
	}
	if card.ImageURL != "https://img.example/front.jpg" {
		t.Fatalf("image = %q, want first card face", card.ImageURL)
	}
	if card.Price != nil {
		t.Fatalf("price = %v, want nil for missing prices", *card.Price)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/search" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "name:bolt" || q.Get("order") != "name" || q.Get("unique") != "cards" {
			t.Fatalf("query = %v", q)
		}
		w.Write([]byte(`{"total_cards": 2, "data": [` + boltJSON + `,` + boltJSON + `]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, nil, nil)
	cards, err := c.Search(context.Background(), "bolt", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards", len(cards))
	}
}

func TestSearchNoHitsIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"object":"error"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, nil, nil)
	cards, err := c.Search(context.Background(), "xyzzy", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("got %d cards, want none", len(cards))
	}
}

func TestSearchCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_cards": 3, "data": [` + boltJSON + `,` + boltJSON + `,` + boltJSON + `]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, nil, nil)
	cards, err := c.Search(context.Background(), "bolt", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want capped at 2", len(cards))
	}
}

func TestByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/abc-123" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Write([]byte(boltJSON))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, nil, nil)
	card, err := c.ByID(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("ByID() error = %v", err)
	}
	if card.ID != "abc-123" {
		t.Fatalf("card = %+v", card)
	}
}

func TestServerErrorIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, nil, nil)
	_, err := c.NamedFuzzy(context.Background(), "bolt")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want a non-NotFound failure", err)
	}
}
