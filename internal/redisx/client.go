package redisx

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Reservation status cache: reservation_status:{id} -> status string.
	KeyReservationStatus = "reservation_status:%s"
)

var TTLStatusCache = 5 * time.Minute

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}
