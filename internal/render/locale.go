package render

// Locale selects the display-string catalog used for the fixed parts of a
// rendered message. Supported values form a closed set; anything else
// parses to the default.
type Locale string

const (
	// LocaleEN is the default locale.
	LocaleEN Locale = "en"
	// LocaleES is the supported alternate locale.
	LocaleES Locale = "es"
)

// ParseLocale maps a locale code to a supported Locale, falling back to
// English for unrecognized values.
func ParseLocale(code string) Locale {
	switch Locale(code) {
	case LocaleES:
		return LocaleES
	default:
		return LocaleEN
	}
}

// Display-string keys.
const (
	keyHeading = "notification_heading"
	keyTagline = "sent_via"
	keyLogoAlt = "logo_alt"
)

var catalogs = map[Locale]map[string]string{
	LocaleEN: {
		keyHeading: "Email Notification",
		keyTagline: "Sent via Email Forwarding Service",
		keyLogoAlt: "Logo",
	},
	LocaleES: {
		keyHeading: "Notificación por Correo",
		keyTagline: "Enviado a través del Servicio de Reenvío de Correo",
		keyLogoAlt: "Logotipo",
	},
}

// lookup returns the display string for key in the given locale. Missing
// keys fall back to the English catalog, then to the key name itself.
func lookup(locale Locale, key string) string {
	if s, ok := catalogs[locale][key]; ok {
		return s
	}
	if s, ok := catalogs[LocaleEN][key]; ok {
		return s
	}
	return key
}
