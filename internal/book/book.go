// Package book holds the upgrade steps of the interactive book content type.
package book

import (
	"context"

	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/cover"
	"evalgo.org/contentupgrade/internal/document"
	"evalgo.org/contentupgrade/internal/htmltable"
	"evalgo.org/contentupgrade/internal/ident"
	"evalgo.org/contentupgrade/internal/migration"
)

// ContentType is the machine name of interactive books.
const ContentType = "H5P.InteractiveBook"

// Field names inside the book parameters.
const (
	fieldBookCover   = "bookCover"
	fieldImage       = "coverImage"
	fieldAltText     = "coverAltText"
	fieldMedium      = "coverMedium"
	fieldDescription = "coverDescription"
)

// NewInstanceID generates sub-content ids for new cover media. Tests may replace it.
var NewInstanceID = ident.NewInstanceID

// Register adds the interactive book steps to reg.
func Register(reg *migration.Registry) error {
	if err := reg.Register(ContentType, 1, 6, "cover medium", UpgradeCoverMedium); err != nil {
		return err
	}
	return reg.Register(ContentType, 1, 8, "table borders", UpgradeTableBorders)
}

// UpgradeCoverMedium replaces the legacy coverImage and coverAltText fields with a
// single coverMedium image reference and centers the cover description.
// Books without a bookCover pass through unchanged. The step never fails.
func UpgradeCoverMedium(_ context.Context, params, extras document.Document, finished migration.Finished) {
	bookCover, ok := params.Map(fieldBookCover)
	if !ok {
		finished(nil, params, extras)
		return
	}

	image, hasImage := bookCover.Map(fieldImage)
	if bookCover.Has(fieldImage) && !hasImage {
		logrus.WithField("field", fieldBookCover+"."+fieldImage).Debug("Ignoring cover image with unexpected shape")
	}
	alt, _ := bookCover.String(fieldAltText)

	if hasImage || alt != "" {
		bookCover[fieldMedium] = map[string]interface{}(cover.Normalize(image, alt, NewInstanceID).ToDocument())
	}
	delete(bookCover, fieldImage)
	delete(bookCover, fieldAltText)

	if desc, ok := bookCover.String(fieldDescription); ok && desc != "" {
		bookCover[fieldDescription] = cover.CenterDescription(desc)
	}

	finished(nil, params, extras)
}

// UpgradeTableBorders makes bordered tables in the cover description carry an
// explicit inline border style. The step never fails.
func UpgradeTableBorders(_ context.Context, params, extras document.Document, finished migration.Finished) {
	bookCover, ok := params.Map(fieldBookCover)
	if !ok {
		finished(nil, params, extras)
		return
	}

	if desc, ok := bookCover.String(fieldDescription); ok {
		bookCover[fieldDescription] = htmltable.Rewrite(desc)
	}

	finished(nil, params, extras)
}
