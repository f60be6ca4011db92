// Package scale stores serial scale settings and parses the raw responses
// those scales send. Talking to the port itself happens on the till.
package scale

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"pos-analytics/internal/models"

	"github.com/shopspring/decimal"
)

var (
	baudRates  = map[int]bool{1200: true, 2400: true, 4800: true, 9600: true, 19200: true, 38400: true, 57600: true, 115200: true}
	parities   = map[string]bool{"none": true, "odd": true, "even": true, "mark": true, "space": true}
	stopBits   = map[string]bool{"1": true, "1.5": true, "2": true}
	handshakes = map[string]bool{"none": true, "xonxoff": true, "rts": true, "rtsxonxoff": true}

	portPattern = regexp.MustCompile(`^(?i:COM[0-9]{1,3}|/dev/[A-Za-z0-9._/-]+)$`)
	number      = regexp.MustCompile(`[-+]?[0-9]+(?:[.,][0-9]+)?`)
)

var ErrNoMatch = errors.New("la respuesta no contiene un peso")

// Normalize lowercases enumerated fields and fills the documented defaults.
func Normalize(sc *models.ScaleConfig) {
	sc.Name = strings.TrimSpace(sc.Name)
	sc.Port = strings.TrimSpace(sc.Port)
	sc.Parity = strings.ToLower(strings.TrimSpace(sc.Parity))
	sc.StopBits = strings.TrimSpace(sc.StopBits)
	sc.Handshake = strings.ToLower(strings.TrimSpace(sc.Handshake))
	if sc.BaudRate == 0 {
		sc.BaudRate = 9600
	}
	if sc.DataBits == 0 {
		sc.DataBits = 8
	}
	if sc.Parity == "" {
		sc.Parity = "none"
	}
	if sc.StopBits == "" {
		sc.StopBits = "1"
	}
	if sc.Handshake == "" {
		sc.Handshake = "none"
	}
	if sc.ReadTimeout == 0 {
		sc.ReadTimeout = 500
	}
}

// Validate checks the serial parameters and that the weight pattern
// compiles. It returns the first problem found.
func Validate(sc models.ScaleConfig) error {
	switch {
	case sc.Name == "":
		return fmt.Errorf("el nombre es obligatorio")
	case !portPattern.MatchString(sc.Port):
		return fmt.Errorf("puerto inválido: %q (COM3, /dev/ttyUSB0)", sc.Port)
	case !baudRates[sc.BaudRate]:
		return fmt.Errorf("velocidad no soportada: %d", sc.BaudRate)
	case sc.DataBits < 5 || sc.DataBits > 8:
		return fmt.Errorf("bits de datos inválidos: %d (5-8)", sc.DataBits)
	case !parities[sc.Parity]:
		return fmt.Errorf("paridad inválida: %q", sc.Parity)
	case !stopBits[sc.StopBits]:
		return fmt.Errorf("bits de parada inválidos: %q", sc.StopBits)
	case !handshakes[sc.Handshake]:
		return fmt.Errorf("control de flujo inválido: %q", sc.Handshake)
	case sc.ReadTimeout < 50 || sc.ReadTimeout > 10000:
		return fmt.Errorf("tiempo de lectura inválido: %d ms (50-10000)", sc.ReadTimeout)
	case strings.TrimSpace(sc.WeightRegex) == "":
		return fmt.Errorf("el patrón de peso es obligatorio")
	}
	if _, err := regexp.Compile(sc.WeightRegex); err != nil {
		return fmt.Errorf("patrón de peso inválido: %w", err)
	}
	return nil
}

// ExtractWeight applies pattern to a raw scale response. The weight is the
// group named "weight", else the first group, else the whole match. Comma
// and dot decimals are accepted.
func ExtractWeight(pattern, raw string) (decimal.Decimal, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return decimal.Zero, fmt.Errorf("patrón de peso inválido: %w", err)
	}

	m := re.FindStringSubmatch(raw)
	if m == nil {
		return decimal.Zero, ErrNoMatch
	}

	text := m[0]
	if i := re.SubexpIndex("weight"); i > 0 && m[i] != "" {
		text = m[i]
	} else if len(m) > 1 && m[1] != "" {
		text = m[1]
	}

	// el grupo puede traer unidades o relleno ("  1,250kg")
	num := number.FindString(text)
	if num == "" {
		return decimal.Zero, ErrNoMatch
	}
	w, err := decimal.NewFromString(strings.Replace(num, ",", ".", 1))
	if err != nil {
		return decimal.Zero, ErrNoMatch
	}
	return w, nil
}
