package model

import (
	"fmt"
	"strings"
	"time"
)

type CustomerStatus string

const (
	CustomerActive    CustomerStatus = "ACTIVE"
	CustomerInactive  CustomerStatus = "INACTIVE"
	CustomerSuspended CustomerStatus = "SUSPENDED"
)

func ParseCustomerStatus(s string) (CustomerStatus, error) {
	switch st := CustomerStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case CustomerActive, CustomerInactive, CustomerSuspended:
		return st, nil
	}
	return "", fmt.Errorf("unknown customer status %q", s)
}

// Customer mirrors the `customers` table. CustomerCode is fixed at creation.
type Customer struct {
	ID           uint64
	CustomerCode string
	FullName     string
	Email        string
	Phone        string
	Address      string
	Status       CustomerStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CustomerPage is one page of an ordered customer listing.
type CustomerPage struct {
	Items      []*Customer
	Page       int
	Size       int
	TotalItems int64
}

func (p CustomerPage) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalItems + int64(p.Size) - 1) / int64(p.Size))
}
