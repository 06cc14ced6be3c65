package storage

import "curvepool/internal/model"

// Storage defines a sink for settled trade records.
type Storage interface {
	PutTradeBatch(trades []model.TradeRecord) error
}
