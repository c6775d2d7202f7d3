package api

import "encoding/json"

// API response types for REST endpoints and WebSocket messages.
// Prices are emitted as JSON numbers with the book's exact decimal text.

// ==============================
// REST Response Types
// ==============================

// MarketInfo lists a symbol with at least one sub-book.
type MarketInfo struct {
	Symbol string `json:"symbol"`
	Bids   int    `json:"bids"` // outstanding buy orders
	Asks   int    `json:"asks"` // outstanding sell orders
}

// PricesInfo is the latest-inserted outstanding price on each side, 0 if empty.
type PricesInfo struct {
	Symbol    string      `json:"symbol"`
	BuyPrice  json.Number `json:"buyPrice"`
	SellPrice json.Number `json:"sellPrice"`
}

// OrderbookSnapshot lists both sides in insertion order, oldest first.
type OrderbookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []OrderEntry `json:"bids"`
	Asks      []OrderEntry `json:"asks"`
	Timestamp int64        `json:"timestamp"` // Unix milliseconds
}

type OrderEntry struct {
	ID    string      `json:"id"`
	Price json.Number `json:"price"`
	Qty   int64       `json:"qty"`
}

// TradeInfo is one persisted match.
type TradeInfo struct {
	Seq         uint64      `json:"seq"`
	Symbol      string      `json:"symbol"`
	BuyOrderID  string      `json:"buyOrderId"`
	SellOrderID string      `json:"sellOrderId"`
	BuyPrice    json.Number `json:"buyPrice"`
	SellPrice   json.Number `json:"sellPrice"`
	Qty         int64       `json:"qty"`
	Timestamp   int64       `json:"timestamp"` // Unix milliseconds
}

// QueueStatus reports orders waiting for the matching worker.
type QueueStatus struct {
	Pending int `json:"pending"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["prices:AAPL", "fills:AAPL"]
}

// PriceUpdate is pushed after every order applied to a symbol.
type PriceUpdate struct {
	Type      string      `json:"type"` // "prices"
	Symbol    string      `json:"symbol"`
	BuyPrice  json.Number `json:"buyPrice"`
	SellPrice json.Number `json:"sellPrice"`
	Timestamp int64       `json:"timestamp"`
}

// FillUpdate is pushed for every cross.
type FillUpdate struct {
	Type        string      `json:"type"` // "fill"
	Symbol      string      `json:"symbol"`
	BuyOrderID  string      `json:"buyOrderId"`
	SellOrderID string      `json:"sellOrderId"`
	BuyPrice    json.Number `json:"buyPrice"`
	SellPrice   json.Number `json:"sellPrice"`
	Qty         int64       `json:"qty"`
	Timestamp   int64       `json:"timestamp"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
