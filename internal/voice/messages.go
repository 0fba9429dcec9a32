package voice

import (
	"fmt"
	"strings"

	"github.com/zombor/logiflow/internal/address"
	"github.com/zombor/logiflow/internal/locale"
)

type replies struct {
	countOne     string
	countMany    string
	next         string
	noneLeft     string
	unrecognized string
	failure      string
}

var catalog = map[locale.Language]replies{
	locale.Portuguese: {
		countOne:     "Você tem 1 entrega pendente",
		countMany:    "Você tem %d entregas pendentes",
		next:         "Próxima entrega: %s",
		noneLeft:     "Não há entregas pendentes",
		unrecognized: "Comando não reconhecido",
		failure:      "Não consegui consultar as entregas",
	},
	locale.English: {
		countOne:     "You have 1 pending delivery",
		countMany:    "You have %d pending deliveries",
		next:         "Next delivery: %s",
		noneLeft:     "There are no pending deliveries",
		unrecognized: "Command not recognized",
		failure:      "I could not check the deliveries",
	},
	locale.Spanish: {
		countOne:     "Tienes 1 entrega pendiente",
		countMany:    "Tienes %d entregas pendientes",
		next:         "Próxima entrega: %s",
		noneLeft:     "No hay entregas pendientes",
		unrecognized: "Comando no reconocido",
		failure:      "No pude consultar las entregas",
	},
}

func repliesFor(lang locale.Language) replies {
	if r, ok := catalog[lang]; ok {
		return r
	}
	return catalog[locale.Fallback]
}

func (r replies) count(n int) string {
	if n == 1 {
		return r.countOne
	}
	return fmt.Sprintf(r.countMany, n)
}

// stop reads a delivery as "name. street, city", skipping empty parts
func (r replies) stop(rec address.Record) string {
	var parts []string
	if name := strings.TrimSpace(rec.Name); name != "" {
		parts = append(parts, name)
	}

	var place []string
	for _, p := range []string{rec.Street, rec.City} {
		if p = strings.TrimSpace(p); p != "" {
			place = append(place, p)
		}
	}
	if len(place) > 0 {
		parts = append(parts, strings.Join(place, ", "))
	}

	return fmt.Sprintf(r.next, strings.Join(parts, ". "))
}
