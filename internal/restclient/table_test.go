package restclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type deedRow struct {
	Rarity       string `json:"rarity"`
	ListingPrice string `json:"listing_price"`
}

func serveJSON(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchTableUnwrapsKeyPath(t *testing.T) {
	server := serveJSON(t, http.StatusOK,
		`{"data":{"deeds":[{"rarity":"rare","listing_price":"12.5"},{"rarity":"epic","listing_price":"40"}]}}`)

	rows := FetchTable[deedRow](context.Background(), testClient(server.URL+"/", 0), "land/deeds", nil, "data.deeds")
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[1].Rarity != "epic" || rows[1].ListingPrice != "40" {
		t.Errorf("rows[1] = %+v, want epic/40", rows[1])
	}
}

func TestFetchTableMissingKeyIsEmpty(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"data":{}}`)

	rows := FetchTable[deedRow](context.Background(), testClient(server.URL+"/", 0), "land/deeds", nil, "data.deeds")
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestFetchTableErrorFieldIsEmpty(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"error":"Player not found"}`)

	rows := FetchTable[deedRow](context.Background(), testClient(server.URL+"/", 0), "x", nil, "")
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestFetchTableNonSuccessIsEmpty(t *testing.T) {
	server := serveJSON(t, http.StatusNotFound, `[{"rarity":"rare"}]`)

	rows := FetchTable[deedRow](context.Background(), testClient(server.URL+"/", 0), "x", nil, "")
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestFetchTableSingleObjectIsOneRow(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"data":{"rarity":"legendary","listing_price":"100"}}`)

	rows := FetchTable[deedRow](context.Background(), testClient(server.URL+"/", 0), "x", nil, "data")
	if len(rows) != 1 || rows[0].Rarity != "legendary" {
		t.Errorf("rows = %+v, want one legendary row", rows)
	}
}

func TestFetchTableShapeDriftIsEmpty(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"data":"maintenance"}`)

	rows := FetchTable[deedRow](context.Background(), testClient(server.URL+"/", 0), "x", nil, "data")
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestFetchObject(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"hive":0.25,"dec":0.0008}`)

	prices, ok := FetchObject[map[string]float64](context.Background(), testClient(server.URL+"/", 0), "prices", nil, "")
	if !ok {
		t.Fatal("FetchObject() ok = false, want true")
	}
	if prices["hive"] != 0.25 {
		t.Errorf("hive = %v, want 0.25", prices["hive"])
	}
}

func TestBracketPath(t *testing.T) {
	if got := bracketPath("data.deeds"); got != `$["data"]["deeds"]` {
		t.Errorf("bracketPath() = %s", got)
	}
}
