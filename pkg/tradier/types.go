package tradier

import (
	"bytes"
	"encoding/json"
)

// OneOrMany decodes a JSON value that the API sends as a single object
// when there is one element, an array when there are several, and null
// or "null" string when there are none.
type OneOrMany[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`"null"`)) {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

// ExpirationsResponse is the body of /v1/markets/options/expirations.
type ExpirationsResponse struct {
	Expirations *struct {
		Date OneOrMany[string] `json:"date"`
	} `json:"expirations"`
}

// Dates returns the expiration dates, or nil when there are none.
func (r ExpirationsResponse) Dates() []string {
	if r.Expirations == nil {
		return nil
	}
	return r.Expirations.Date
}

// Greeks holds the greeks and implied volatilities attached to a chain entry.
type Greeks struct {
	Delta     float64 `json:"delta"`
	Gamma     float64 `json:"gamma"`
	Theta     float64 `json:"theta"`
	Vega      float64 `json:"vega"`
	Rho       float64 `json:"rho"`
	Phi       float64 `json:"phi"`
	BidIV     float64 `json:"bid_iv"`
	MidIV     float64 `json:"mid_iv"`
	AskIV     float64 `json:"ask_iv"`
	SmvVol    float64 `json:"smv_vol"`
	UpdatedAt string  `json:"updated_at"`
}

// Option is a single contract in an option chain.
type Option struct {
	Symbol         string  `json:"symbol"`
	Description    string  `json:"description"`
	Underlying     string  `json:"underlying"`
	RootSymbol     string  `json:"root_symbol"`
	OptionType     string  `json:"option_type"`
	Strike         float64 `json:"strike"`
	ExpirationDate string  `json:"expiration_date"`
	Last           float64 `json:"last"`
	Change         float64 `json:"change"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Volume         int64   `json:"volume"`
	OpenInterest   int64   `json:"open_interest"`
	ContractSize   int     `json:"contract_size"`
	Greeks         *Greeks `json:"greeks"`
}

// ChainResponse is the body of /v1/markets/options/chains.
type ChainResponse struct {
	Options *struct {
		Option OneOrMany[Option] `json:"option"`
	} `json:"options"`
}

// Contracts returns the chain entries, or nil when the chain is empty.
func (r ChainResponse) Contracts() []Option {
	if r.Options == nil {
		return nil
	}
	return r.Options.Option
}

// Quote is a single entry of /v1/markets/quotes.
type Quote struct {
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Last        float64 `json:"last"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	PrevClose   float64 `json:"prevclose"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	Volume      int64   `json:"volume"`
}

// QuotesResponse is the body of /v1/markets/quotes.
type QuotesResponse struct {
	Quotes *struct {
		Quote            OneOrMany[Quote] `json:"quote"`
		UnmatchedSymbols *struct {
			Symbol OneOrMany[string] `json:"symbol"`
		} `json:"unmatched_symbols"`
	} `json:"quotes"`
}

// Day is one daily bar of /v1/markets/history.
type Day struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// HistoryResponse is the body of /v1/markets/history.
type HistoryResponse struct {
	History *struct {
		Day OneOrMany[Day] `json:"day"`
	} `json:"history"`
}

// Days returns the bars, or nil when the API returned no history.
func (r HistoryResponse) Days() []Day {
	if r.History == nil {
		return nil
	}
	return r.History.Day
}
