package viewstate

import (
	"fmt"
	"sync"

	"medibot-afrika/internal/consultation"
)

type View string

const (
	ViewForm      View = "form"
	ViewDiagnosis View = "diagnosis"
	ViewLog       View = "log"
)

func (v View) Valid() bool {
	return v == ViewForm || v == ViewDiagnosis || v == ViewLog
}

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Controller is the state shared by the form, diagnosis and log views.
type Controller struct {
	mu       sync.RWMutex
	view     View
	language consultation.Language
	theme    Theme
	last     *consultation.ConsultationRecord
}

// New starts on the form view, in English, with the dark theme.
func New() *Controller {
	return &Controller{
		view:     ViewForm,
		language: consultation.LanguageEnglish,
		theme:    ThemeDark,
	}
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	View       View                             `json:"view"`
	Language   consultation.Language            `json:"language"`
	Theme      Theme                            `json:"theme"`
	LastRecord *consultation.ConsultationRecord `json:"last_record,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{View: c.view, Language: c.language, Theme: c.theme}
	if c.last != nil {
		rec := *c.last
		s.LastRecord = &rec
	}
	return s
}

func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

func (c *Controller) Language() consultation.Language {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

// Select switches views. The diagnosis view needs a record to show, so
// selecting it without one is a no-op. It reports whether the view changed.
func (c *Controller) Select(v View) (bool, error) {
	if !v.Valid() {
		return false, fmt.Errorf("unknown view %q", v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v == ViewDiagnosis && c.last == nil {
		return false, nil
	}
	changed := c.view != v
	c.view = v
	return changed, nil
}

func (c *Controller) SetLanguage(lang consultation.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("unknown language %q", lang)
	}
	c.mu.Lock()
	c.language = lang
	c.mu.Unlock()
	return nil
}

func (c *Controller) ToggleTheme() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.theme == ThemeDark {
		c.theme = ThemeLight
	} else {
		c.theme = ThemeDark
	}
	return c.theme
}

// CompleteConsultation keeps the new record and shows it.
func (c *Controller) CompleteConsultation(rec consultation.ConsultationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = &rec
	c.view = ViewDiagnosis
}

// NewConsultation goes back to the form. The last record is kept so the
// diagnosis view stays reachable until the next submission replaces it.
func (c *Controller) NewConsultation() {
	c.mu.Lock()
	c.view = ViewForm
	c.mu.Unlock()
}
