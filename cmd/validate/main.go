package main

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/kmills-dev/storyloom/pkg/conditions"
	"github.com/kmills-dev/storyloom/pkg/story"
)

// Offline checker for exported project bundles. Catches the authoring
// mistakes the engine tolerates at runtime (dangling links, order gaps,
// unknown keywords) before a story ships.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <export.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &ExportValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Project export is valid!")
}

type ExportValidator struct {
	errors []string
}

func (v *ExportValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var export story.ProjectExport
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&export); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateExport(&export)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *ExportValidator) validateExport(e *story.ProjectExport) {
	screenIDs := e.ScreenIDs()
	keyWords := e.CurrencyKeyWords()

	v.validateCurrencies(e.Currencies)
	v.validateChapterOrders(e.Chapters)
	v.validateScreens(e, screenIDs)
	v.validateReplies(e, screenIDs, keyWords)
	v.validateReferences(e.References, keyWords)
}

func (v *ExportValidator) validateCurrencies(currencies []story.Currency) {
	seen := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		if c.KeyWord == "" {
			v.addError(fmt.Sprintf("currency %s has an empty keyWord", c.ID))
			continue
		}
		if !isValidKeyWord(c.KeyWord) {
			v.addError(fmt.Sprintf("currency keyWord '%s' should be lowercase snake_case", c.KeyWord))
		}
		if seen[c.KeyWord] {
			v.addError(fmt.Sprintf("duplicate currency keyWord '%s'", c.KeyWord))
		}
		seen[c.KeyWord] = true
	}
}

func (v *ExportValidator) validateChapterOrders(chapters []story.Chapter) {
	orders := make([]int, 0, len(chapters))
	for _, c := range chapters {
		orders = append(orders, c.Order)
	}
	v.validateDenseOrders("chapters", orders)
}

func (v *ExportValidator) validateScreens(e *story.ProjectExport, screenIDs map[string]bool) {
	byChapter := make(map[string][]int)
	for _, s := range e.Screens {
		byChapter[s.ChapterID.String()] = append(byChapter[s.ChapterID.String()], s.Order)

		if s.LinkToNextScreen != "" && !screenIDs[s.LinkToNextScreen] {
			v.addError(fmt.Sprintf("screen %s links to missing screen '%s'", s.ID, s.LinkToNextScreen))
		}
	}
	for chapterID, orders := range byChapter {
		v.validateDenseOrders("screens in chapter "+chapterID, orders)
	}
}

func (v *ExportValidator) validateReplies(e *story.ProjectExport, screenIDs, keyWords map[string]bool) {
	byScreen := make(map[string][]int)
	for _, r := range e.Replies {
		byScreen[r.ScreenID.String()] = append(byScreen[r.ScreenID.String()], r.Order)

		if r.LinkToSectionID == "" {
			v.addError(fmt.Sprintf("reply %s has no link target; choosing it halts playback", r.ID))
		} else if !screenIDs[r.LinkToSectionID] {
			v.addError(fmt.Sprintf("reply %s links to missing screen '%s'", r.ID, r.LinkToSectionID))
		}

		for _, c := range r.Requirements {
			v.validateCondition(c, fmt.Sprintf("requirement on reply %s", r.ID), keyWords)
		}
		for _, c := range r.Effects {
			v.validateCondition(c, fmt.Sprintf("effect on reply %s", r.ID), keyWords)
		}
	}
	for screenID, orders := range byScreen {
		v.validateDenseOrders("replies on screen "+screenID, orders)
	}
}

func (v *ExportValidator) validateReferences(references []story.Reference, keyWords map[string]bool) {
	for _, ref := range references {
		for _, rq := range ref.Requirements {
			if rq.StartsWith {
				continue
			}
			v.validateCondition(rq.Condition, fmt.Sprintf("requirement on reference %s", ref.ID), keyWords)
		}
	}
}

func (v *ExportValidator) validateCondition(c conditions.Condition, context string, keyWords map[string]bool) {
	if err := c.Validate(); err != nil {
		v.addError(fmt.Sprintf("%s: %v", context, err))
		return
	}
	// Unknown currency keywords fail closed at runtime; flag them here.
	if c.Type == conditions.KindCurrency && !keyWords[c.KeyWord] {
		v.addError(fmt.Sprintf("%s targets undefined currency '%s'", context, c.KeyWord))
	}
}

// validateDenseOrders checks a sibling group for the 1..N invariant.
func (v *ExportValidator) validateDenseOrders(context string, orders []int) {
	sort.Ints(orders)
	for i, order := range orders {
		if order != i+1 {
			v.addError(fmt.Sprintf("%s have non-dense order values %v; expected 1..%d", context, orders, len(orders)))
			return
		}
	}
}

func (v *ExportValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validKeyWordRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidKeyWord(kw string) bool {
	return validKeyWordRegex.MatchString(kw)
}
