package render

import "fmt"

// Locale holds the user-facing texts and the clock layout for one language.
type Locale struct {
	Tag          string
	UserLabel    string
	TimeLayout   string
	ErrorPrefix  string
	ModelChanged string
	Welcome      string
}

var (
	Indonesian = Locale{
		Tag:          "id",
		UserLabel:    "Anda",
		TimeLayout:   "15.04",
		ErrorPrefix:  "Maaf, terjadi kesalahan",
		ModelChanged: "Model AI berubah ke %s. Silakan ajukan pertanyaan Anda!",
		Welcome:      "👋 Selamat datang! Silakan ajukan pertanyaan Anda.",
	}
	English = Locale{
		Tag:          "en",
		UserLabel:    "You",
		TimeLayout:   "15:04",
		ErrorPrefix:  "Sorry, something went wrong",
		ModelChanged: "AI model changed to %s. Go ahead and ask your question!",
		Welcome:      "👋 Welcome! Go ahead and ask your question.",
	}
)

// LocaleFor falls back to Indonesian for unknown tags.
func LocaleFor(tag string) Locale {
	if tag == English.Tag {
		return English
	}
	return Indonesian
}

func (l Locale) ErrorText(err error) string {
	return fmt.Sprintf("❌ %s: %s", l.ErrorPrefix, err.Error())
}

func (l Locale) ModelChangedText(displayName string) string {
	return fmt.Sprintf(l.ModelChanged, displayName)
}
