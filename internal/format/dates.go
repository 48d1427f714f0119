package format

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// localePatterns are the date and money renderings of one language. CLDR
// date skeletons and currency patterns are not exposed by x/text, so the
// supported languages carry their own.
type localePatterns struct {
	// money places the symbol (%[1]s) around the digits (%[2]s).
	money       string
	short       string
	long        func(t time.Time) string
	lastEntry   string
	lastExpense string
	period      func(t time.Time) string
}

var supported = []language.Tag{
	language.BrazilianPortuguese, // first entry is the matcher fallback
	language.AmericanEnglish,
	language.BritishEnglish,
	language.Italian,
	language.Spanish,
	language.German,
	language.French,
}

var matcher = language.NewMatcher(supported)

var (
	ptMonths = [12]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho",
		"julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}
	enMonths = [12]string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	itMonths = [12]string{"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
		"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"}
	esMonths = [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
	deMonths = [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni",
		"Juli", "August", "September", "Oktober", "November", "Dezember"}
	frMonths = [12]string{"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre"}
)

const (
	symbolFirst      = "%[1]s%[2]s"
	symbolFirstSpace = "%[1]s %[2]s"
	symbolLastSpace  = "%[2]s %[1]s"
)

func patternsFor(tag language.Tag) localePatterns {
	_, index, _ := matcher.Match(tag)
	switch supported[index] {
	case language.AmericanEnglish:
		return english("01/02/2006", func(t time.Time) string {
			return fmt.Sprintf("%s %d", enMonths[t.Month()-1], t.Day())
		})
	case language.BritishEnglish:
		return english("02/01/2006", func(t time.Time) string {
			return fmt.Sprintf("%d %s", t.Day(), enMonths[t.Month()-1])
		})
	case language.Italian:
		return dayMonth(symbolLastSpace, "02/01/2006", itMonths, "%d %s", "Ultima entrata il %s", "Ultima uscita il %s", "dal 01 al %s")
	case language.Spanish:
		return dayMonth(symbolLastSpace, "02/01/2006", esMonths, "%d de %s", "Última entrada el %s", "Última salida el %s", "01 al %s")
	case language.German:
		return dayMonth(symbolLastSpace, "02.01.2006", deMonths, "%d. %s", "Letzte Einnahme am %s", "Letzte Ausgabe am %s", "01. bis %s")
	case language.French:
		return dayMonth(symbolLastSpace, "02/01/2006", frMonths, "%d %s", "Dernière entrée le %s", "Dernière sortie le %s", "du 01 au %s")
	default:
		return dayMonth(symbolFirstSpace, "02/01/2006", ptMonths, "%d de %s", "Última entrada dia %s", "Última saída dia %s", "01 à %s")
	}
}

func dayMonth(money, short string, months [12]string, longFmt, lastEntry, lastExpense, periodFmt string) localePatterns {
	long := func(t time.Time) string {
		return fmt.Sprintf(longFmt, t.Day(), months[t.Month()-1])
	}
	return localePatterns{
		money:       money,
		short:       short,
		long:        long,
		lastEntry:   lastEntry,
		lastExpense: lastExpense,
		period: func(t time.Time) string {
			return fmt.Sprintf(periodFmt, long(t))
		},
	}
}

func english(short string, long func(t time.Time) string) localePatterns {
	return localePatterns{
		money:       symbolFirst,
		short:       short,
		long:        long,
		lastEntry:   "Last entry on %s",
		lastExpense: "Last expense on %s",
		period: func(t time.Time) string {
			first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
			return fmt.Sprintf("%s to %s", long(first), long(t))
		},
	}
}
