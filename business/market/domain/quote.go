package domain

import (
	"time"

	"github.com/fd1az/silver-ai/internal/asset"
)

// Quote is the fetched price of one gram of silver for a region.
type Quote struct {
	Region  string
	Price   asset.Price
	Session Session
}

// NewQuote builds a quote observed at at.
func NewQuote(region string, price asset.Price, at time.Time) Quote {
	return Quote{Region: region, Price: price, Session: SessionAt(at)}
}
