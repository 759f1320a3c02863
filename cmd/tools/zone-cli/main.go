package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultServerAddr = "http://localhost:8089"

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type zoneInfo struct {
	X           int  `json:"x"`
	Z           int  `json:"z"`
	Resident    bool `json:"resident"`
	Builds      int  `json:"builds"`
	PlayerEdits int  `json:"player_edits"`
	Distance    int  `json:"distance"`
}

func main() {
	var (
		serverAddr = flag.String("server", defaultServerAddr, "Debug API address")
		command    = flag.String("cmd", "zones", "Command: zones, block, selection, stats, place, remove")
		resident   = flag.Bool("resident", false, "zones: only resident zones")
		x          = flag.Int("x", 0, "block: world X")
		y          = flag.Int("y", 0, "block: world Y")
		z          = flag.Int("z", 0, "block: world Z")
		id         = flag.Int("id", 3, "place: block type id")
	)
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	base := *serverAddr

	switch *command {
	case "zones":
		q := url.Values{}
		if *resident {
			q.Set("resident", "true")
		}
		var data struct {
			Count int        `json:"count"`
			Zones []zoneInfo `json:"zones"`
		}
		mustCall(client, http.MethodGet, base+"/api/zones?"+q.Encode(), nil, &data)
		printZones(data.Count, data.Zones)

	case "block":
		q := url.Values{}
		q.Set("x", strconv.Itoa(*x))
		q.Set("y", strconv.Itoa(*y))
		q.Set("z", strconv.Itoa(*z))
		printRaw(mustCall(client, http.MethodGet, base+"/api/block?"+q.Encode(), nil, nil))

	case "selection":
		printRaw(mustCall(client, http.MethodGet, base+"/api/selection", nil, nil))

	case "stats":
		printRaw(mustCall(client, http.MethodGet, base+"/api/stats", nil, nil))

	case "place":
		body := fmt.Sprintf(`{"id":%d}`, *id)
		printRaw(mustCall(client, http.MethodPost, base+"/api/selection/place", &body, nil))

	case "remove":
		printRaw(mustCall(client, http.MethodPost, base+"/api/selection/remove", nil, nil))

	default:
		log.Fatalf("Неизвестная команда: %s", *command)
	}
}

// mustCall выполняет запрос и декодирует поле data в out, если out != nil
func mustCall(client *http.Client, method, target string, body *string, out interface{}) json.RawMessage {
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(*body)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		log.Fatalf("Ошибка запроса: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Сервер недоступен: %v", err)
	}
	defer resp.Body.Close()

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		log.Fatalf("Ошибка разбора ответа (%s): %v", resp.Status, err)
	}
	if !r.Success {
		fmt.Fprintf(os.Stderr, "❌ %s: %s\n", resp.Status, r.Message)
		os.Exit(1)
	}

	if out != nil {
		if err := json.Unmarshal(r.Data, out); err != nil {
			log.Fatalf("Ошибка разбора data: %v", err)
		}
	}
	return r.Data
}

func printZones(count int, zones []zoneInfo) {
	fmt.Printf("%8s %8s %9s %7s %6s %5s\n", "X", "Z", "RESIDENT", "BUILDS", "EDITS", "DIST")
	for _, z := range zones {
		fmt.Printf("%8d %8d %9t %7d %6d %5d\n", z.X, z.Z, z.Resident, z.Builds, z.PlayerEdits, z.Distance)
	}
	fmt.Printf("Всего: %d\n", count)
}

func printRaw(data json.RawMessage) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil || data == nil {
		fmt.Println("OK")
		return
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
