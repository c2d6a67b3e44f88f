// Package cover converts legacy book-cover fields into the unified media reference
// used by current interactive books.
package cover

import (
	"regexp"
	"strings"

	"evalgo.org/contentupgrade/internal/document"
)

// Fixed values of the media reference produced for legacy cover images.
const (
	ImageLibrary       = "H5P.Image 1.1"
	ImageContentType   = "Image"
	ImageContentName   = "Image"
	UnspecifiedLicense = "U"
	UntitledImage      = "Untitled Image"
	AuthorRole         = "Author"

	CenteredParagraph = `<p style="text-align: center;">`
)

var paragraphOpen = regexp.MustCompile(`<p(?:\s[^>]*)?>`)

// Author credits a person for the cover medium.
type Author struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Metadata describes the cover medium and its licensing.
type Metadata struct {
	ContentType    string   `json:"contentType"`
	License        string   `json:"license"`
	Title          string   `json:"title"`
	Authors        []Author `json:"authors,omitempty"`
	Source         string   `json:"source,omitempty"`
	LicenseVersion string   `json:"licenseVersion,omitempty"`
	YearFrom       *int     `json:"yearFrom,omitempty"`
}

// Params are the image parameters embedded in the reference.
type Params struct {
	ContentName string            `json:"contentName"`
	Decorative  bool              `json:"decorative"`
	Alt         string            `json:"alt,omitempty"`
	File        document.Document `json:"file,omitempty"`
}

// MediaReference is the unified cover medium.
type MediaReference struct {
	LibraryIdentifier string   `json:"library"`
	Metadata          Metadata `json:"metadata"`
	Params            Params   `json:"params"`
	InstanceID        string   `json:"subContentId"`
}

// Normalize builds a media reference from a legacy cover file and alt text.
//
// Copyright data nested in the file is lifted into the metadata and stripped from the
// embedded file copy. Fields with an unexpected shape are skipped. The input file is
// never modified, and every call draws a fresh instance id from newID.
func Normalize(file document.Document, alt string, newID func() string) MediaReference {
	ref := MediaReference{
		LibraryIdentifier: ImageLibrary,
		Metadata: Metadata{
			ContentType: ImageContentType,
			License:     UnspecifiedLicense,
			Title:       UntitledImage,
		},
		Params: Params{
			ContentName: ImageContentName,
			Decorative:  false,
			Alt:         alt,
		},
		InstanceID: newID(),
	}

	if file == nil {
		return ref
	}

	embedded := file.Clone()
	if copyright, ok := embedded.Map("copyright"); ok {
		liftCopyright(&ref.Metadata, copyright)
		delete(embedded, "copyright")
	}
	ref.Params.File = embedded

	return ref
}

func liftCopyright(meta *Metadata, copyright document.Document) {
	if author, ok := nonEmpty(copyright, "author"); ok {
		meta.Authors = []Author{{Name: author, Role: AuthorRole}}
	}
	if license, ok := nonEmpty(copyright, "license"); ok {
		meta.License = license
	}
	if source, ok := nonEmpty(copyright, "source"); ok {
		meta.Source = source
	}
	if title, ok := nonEmpty(copyright, "title"); ok {
		meta.Title = title
	}
	if version, ok := nonEmpty(copyright, "version"); ok {
		meta.LicenseVersion = version
	}
	if year, ok := parseYear(copyright["year"]); ok {
		meta.YearFrom = &year
	}
}

// ToDocument renders the reference as a document value, omitting absent optional
// fields the same way the JSON encoding does.
func (r MediaReference) ToDocument() document.Document {
	meta := map[string]interface{}{
		"contentType": r.Metadata.ContentType,
		"license":     r.Metadata.License,
		"title":       r.Metadata.Title,
	}
	if len(r.Metadata.Authors) > 0 {
		authors := make([]interface{}, 0, len(r.Metadata.Authors))
		for _, a := range r.Metadata.Authors {
			authors = append(authors, map[string]interface{}{"name": a.Name, "role": a.Role})
		}
		meta["authors"] = authors
	}
	if r.Metadata.Source != "" {
		meta["source"] = r.Metadata.Source
	}
	if r.Metadata.LicenseVersion != "" {
		meta["licenseVersion"] = r.Metadata.LicenseVersion
	}
	if r.Metadata.YearFrom != nil {
		meta["yearFrom"] = *r.Metadata.YearFrom
	}

	params := map[string]interface{}{
		"contentName": r.Params.ContentName,
		"decorative":  r.Params.Decorative,
	}
	if r.Params.Alt != "" {
		params["alt"] = r.Params.Alt
	}
	if r.Params.File != nil {
		params["file"] = map[string]interface{}(r.Params.File.Clone())
	}

	return document.Document{
		"library":      r.LibraryIdentifier,
		"metadata":     meta,
		"params":       params,
		"subContentId": r.InstanceID,
	}
}

// CenterDescription makes the cover description declare centered text.
//
// Plain text is wrapped in a centered paragraph. Markup that already starts with a
// paragraph has every paragraph opening tag replaced by the centered one; existing
// attributes on those tags are overwritten, not merged. Applying it twice gives the
// same result as applying it once.
func CenterDescription(desc string) string {
	if loc := paragraphOpen.FindStringIndex(desc); loc == nil || loc[0] != 0 {
		return CenteredParagraph + desc + "</p>"
	}
	return paragraphOpen.ReplaceAllLiteralString(desc, CenteredParagraph)
}

func nonEmpty(d document.Document, key string) (string, bool) {
	s, ok := d.String(key)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// parseYear accepts a number or a string starting with an integer ("2019",
// " 2019 ", "2019-05"). Anything else is ignored.
func parseYear(v interface{}) (int, bool) {
	switch year := v.(type) {
	case float64:
		if year != float64(int(year)) {
			return 0, false
		}
		return int(year), true
	case int:
		return year, true
	case string:
		return leadingInt(year)
	default:
		return 0, false
	}
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
		if digits > 9 {
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
