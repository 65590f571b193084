package fitshdr

import (
	"strconv"
	"strings"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

const (
	cardSize  = 80
	blockSize = 2880
)

// Card is one decoded header record.
type Card struct {
	Key     string
	Value   ftmgmt.Value
	Width   int
	Comment string
}

// parseCard decodes an 80-byte card. ok is false for cards without a value
// (COMMENT, HISTORY, blank) and for END.
func parseCard(raw string) (card Card, ok bool) {
	if len(raw) < cardSize {
		raw += strings.Repeat(" ", cardSize-len(raw))
	}

	if strings.HasPrefix(raw, "HIERARCH ") {
		eq := strings.IndexByte(raw, '=')
		if eq < 0 {
			return Card{}, false
		}
		card.Key = strings.Join(strings.Fields(raw[:eq]), " ")
		return decodeValue(card, raw[eq+1:]), true
	}

	card.Key = strings.TrimSpace(raw[:8])
	if card.Key == "" || raw[8:10] != "= " {
		return Card{}, false
	}
	return decodeValue(card, raw[10:]), true
}

func decodeValue(card Card, field string) Card {
	field = strings.TrimLeft(field, " ")

	if strings.HasPrefix(field, "'") {
		var sb strings.Builder
		i := 1
		for i < len(field) {
			if field[i] == '\'' {
				if i+1 < len(field) && field[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				i++
				break
			}
			sb.WriteByte(field[i])
			i++
		}
		s := strings.TrimRight(sb.String(), " ")
		card.Value = ftmgmt.StringValue(s)
		card.Width = len(s)
		card.Comment = comment(field[i:])
		return card
	}

	text, rest, _ := strings.Cut(field, "/")
	card.Comment = strings.TrimSpace(rest)
	text = strings.TrimSpace(text)

	switch {
	case text == "":
		card.Value = ftmgmt.Value{}
	case text == "T" || text == "F":
		card.Value = ftmgmt.BoolValue(text == "T")
		card.Width = 1
	default:
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			card.Value = ftmgmt.IntValue(i)
			card.Width = intWidth(i)
			break
		}
		normalized := strings.NewReplacer("D", "E", "d", "e").Replace(text)
		if f, err := strconv.ParseFloat(normalized, 64); err == nil {
			card.Value = ftmgmt.FloatValue(f)
			card.Width = 8
			break
		}
		card.Value = ftmgmt.StringValue(text)
		card.Width = len(text)
	}
	return card
}

func comment(rest string) string {
	_, c, found := strings.Cut(rest, "/")
	if !found {
		return ""
	}
	return strings.TrimSpace(c)
}

// intWidth is the byte size of the smallest signed integer holding i.
func intWidth(i int64) int {
	switch {
	case i >= -1<<15 && i < 1<<15:
		return 2
	case i >= -1<<31 && i < 1<<31:
		return 4
	}
	return 8
}
