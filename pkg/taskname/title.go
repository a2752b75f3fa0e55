package taskname

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gosimple/slug"
)

// Output subfolders created under every task folder.
var OutputSubfolders = []string{"thumbnails", "tiles", "music-license"}

var shortCodes = map[string]string{
	"short form videos":      "SF",
	"long form videos":       "LF",
	"square form videos":     "SQF",
	"beta short form videos": "BSF",
	"thumbnails":             "THUMB",
	"tiles":                  "T",
	"hard posts":             "HP",
	"graphic images":         "HP",
	"snapchat episodes":      "SEP",
	"stories":                "ST",
}

// ShortCode maps a deliverable type to its title code. Unknown types fall back
// to the type with whitespace removed.
func ShortCode(deliverableType string) string {
	key := strings.Join(strings.Fields(strings.ToLower(deliverableType)), " ")
	if code, ok := shortCodes[key]; ok {
		return code
	}
	return strings.Join(strings.Fields(deliverableType), "")
}

// ClientSlug turns a company name into a PascalCase ASCII token. Plain ASCII
// words keep their casing, others are transliterated:
// "YouTube Pros" -> "YouTubePros", "Café Ñu Media" -> "CafeNuMedia".
// Names with nothing sluggable give "".
func ClientSlug(companyName string) string {
	var b strings.Builder
	for _, word := range strings.Fields(companyName) {
		if isASCIIWord(word) {
			b.WriteString(upperFirst(word))
			continue
		}
		for _, part := range strings.Split(slug.Make(word), "-") {
			if part != "" {
				b.WriteString(upperFirst(part))
			}
		}
	}
	return b.String()
}

func isASCIIWord(word string) bool {
	for _, r := range word {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return word != ""
}

func upperFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Title builds {ClientSlug}_{MM-DD-YYYY}_{ShortCode}{N}.
func Title(companyName string, due time.Time, deliverableType string, n int) string {
	return fmt.Sprintf("%s_%s_%s%d", ClientSlug(companyName), due.Format("01-02-2006"), ShortCode(deliverableType), n)
}

// OutputFolder returns the folder key {root}/outputs/{title}/.
func OutputFolder(root, title string) string {
	root = strings.Trim(root, "/")
	if root == "" {
		return fmt.Sprintf("outputs/%s/", title)
	}
	return fmt.Sprintf("%s/outputs/%s/", root, title)
}
