package catalog

import "strings"

// Prices holds the raw integer price columns. The last two digits are
// decimals: 320000 means $3.200,00.
type Prices struct {
	Cost int64 `json:"cost"`
	List int64 `json:"list"`
	Sale int64 `json:"sale"`
}

// Product is one catalog row ready for display.
type Product struct {
	Title     string `json:"title"`
	ListPrice string `json:"listPrice"`
	SalePrice string `json:"salePrice"`
	ListRaw   int64  `json:"listRaw"`
	SaleRaw   int64  `json:"saleRaw"`
}

// FormatPrice renders an integer cents value in the es-AR convention,
// e.g. 320000 → "$3.200,00".
func FormatPrice(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	intPart := cents / 100
	decPart := cents % 100

	digits := []byte{}
	if intPart == 0 {
		digits = []byte("0")
	}
	for intPart > 0 {
		digits = append([]byte{byte('0' + intPart%10)}, digits...)
		intPart /= 10
	}

	var b strings.Builder
	b.WriteByte('$')
	if negative {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(d)
	}
	b.WriteByte(',')
	b.WriteByte(byte('0' + decPart/10))
	b.WriteByte(byte('0' + decPart%10))
	return b.String()
}
