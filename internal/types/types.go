package types

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

type Decision struct {
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type OrderRequest struct {
	Symbol, Side, Type string
	Size, Price        float64
	Slippage           float64
	ReduceOnly         bool
	DryRun             bool
}

type OrderResponse struct {
	OrderID    string  `json:"order_id"`
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	FilledSize float64 `json:"filled_size,omitempty"`
	AvgPrice   float64 `json:"avg_price,omitempty"`
}

type RunRequest struct {
	Prompt string  `json:"prompt"`
	Symbol string  `json:"symbol"`
	DryRun bool    `json:"dry_run"`
	Amount float64 `json:"amount"`
}
