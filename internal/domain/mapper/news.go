package mapper

import (
	"context"
	"strings"

	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/metrics"
	"github.com/pkg/errors"
)

// newsMinFields covers date, station, a spare column, the phrase and a count.
const newsMinFields = 5

// MapNewsLine maps one line of a TV-news n-gram file:
//
//	DATE \t STATION \t HOUR \t PHRASE \t ... \t FREQ
//
// Phrases containing a stopword are suppressed and report false, as do lines
// that fail to parse.
func (m *Mapper) MapNewsLine(ctx context.Context, line []byte) (model.NewsGram, bool) {
	var doc model.NewsGram
	var suppressed bool
	ok := m.guard(ctx, model.KindNews, func() error {
		fields := strings.Split(strings.TrimRight(string(line), "\r\n"), "\t")
		if len(fields) < newsMinFields {
			return errors.Wrapf(ErrShortRecord, "news line has %d fields", len(fields))
		}
		grams := strings.Fields(fields[3])
		if len(grams) == 0 {
			return errors.Wrap(ErrMissingField, "news phrase is empty")
		}
		if m.stopwords.Any(grams) {
			suppressed = true
			return nil
		}
		date, err := model.ParseDay(fields[0])
		if err != nil {
			return errors.Wrapf(ErrMalformed, "news date %q", fields[0])
		}
		freq, err := parseInt("freq", fields[len(fields)-1])
		if err != nil {
			return err
		}
		doc = model.NewsGram{
			Date:    date,
			Station: fields[1],
			Word:    fields[3],
			NGrams:  len(grams),
			Freq:    freq,
		}
		return nil
	})
	if !ok {
		return model.NewsGram{}, false
	}
	if suppressed {
		metrics.RecordDocumentDropped(model.KindNews, "stopword")
		return model.NewsGram{}, false
	}
	accepted(model.KindNews)
	return doc, true
}
