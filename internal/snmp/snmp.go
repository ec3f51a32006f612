package snmp

import (
	"fmt"

	"github.com/soniah/gosnmp"
)

type GetterSetter interface {
	Get([]string) (*gosnmp.SnmpPacket, error)
	Set([]gosnmp.SnmpPDU) (*gosnmp.SnmpPacket, error)
}

// GetInts fetches oids in a single request and returns their integer values
// keyed by oid without the leading dot.
func GetInts(gs GetterSetter, oids ...string) (map[string]int64, error) {
	result, err := gs.Get(oids) // Get() accepts up to g.MAX_OIDS
	if err != nil {
		return nil, fmt.Errorf("failed to Get() %v: %w", oids, err)
	}
	values := make(map[string]int64, len(oids))
	for _, variable := range result.Variables {
		name := variable.Name
		if len(name) > 0 && name[0] == '.' {
			name = name[1:]
		}
		values[name] = gosnmp.ToBigInt(variable.Value).Int64()
	}
	if len(values) != len(oids) {
		return values, fmt.Errorf("not all values were received: expected %d, got %d", len(oids), len(values))
	}
	return values, nil
}

// SetInt writes a single integer value.
func SetInt(gs GetterSetter, oid string, value int) error {
	_, err := gs.Set([]gosnmp.SnmpPDU{{
		Name:  oid,
		Type:  gosnmp.Integer,
		Value: value,
	}})
	return err
}
