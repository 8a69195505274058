package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Address is the postal address stored as jsonb on profiles and warehouses.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// ShippingAddress is the snapshot written on an order.
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Phone    string `json:"phone"`
}

func (Address) GormDataType() string         { return "jsonb" }
func (ShippingAddress) GormDataType() string { return "jsonb" }

func (a Address) Value() (driver.Value, error) { return jsonValue(a) }
func (a *Address) Scan(src any) error          { return jsonScan(src, a) }

func (a ShippingAddress) Value() (driver.Value, error) { return jsonValue(a) }
func (a *ShippingAddress) Scan(src any) error          { return jsonScan(src, a) }

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
}
