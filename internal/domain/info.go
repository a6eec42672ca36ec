package domain

import (
	"fmt"
	"strings"
)

// InfoType names the physical quantity carried by a context entry.
type InfoType string

const (
	InfoNone        InfoType = ""
	InfoHumidity    InfoType = "humidity"
	InfoTemperature InfoType = "temperature"
	InfoCO2         InfoType = "co2"
	InfoVoltage     InfoType = "voltage"
	InfoRadiation   InfoType = "radiation"
	InfoPressure    InfoType = "pressure"
	InfoLight       InfoType = "light"
	InfoWindSpeed   InfoType = "windSpeed"
)

var knownInfoTypes = []InfoType{
	InfoHumidity,
	InfoTemperature,
	InfoCO2,
	InfoVoltage,
	InfoRadiation,
	InfoPressure,
	InfoLight,
	InfoWindSpeed,
}

func (t InfoType) String() string {
	if t == InfoNone {
		return "none"
	}
	return string(t)
}

func (t InfoType) IsValid() bool {
	for _, k := range knownInfoTypes {
		if k == t {
			return true
		}
	}
	return t == InfoNone
}

// ParseInfoType matches case-insensitively; an empty string maps to InfoNone.
func ParseInfoType(s string) (InfoType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return InfoNone, nil
	}
	for _, k := range knownInfoTypes {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return InfoNone, fmt.Errorf("unknown info type %q", s)
}
