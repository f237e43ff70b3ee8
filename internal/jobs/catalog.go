package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voiceclone/internal/remote"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

const (
	DefaultPageSize  = 50
	DefaultPagePause = 100 * time.Millisecond
)

// Fetcher pages through the account's voices.
type Fetcher struct {
	Client   remote.Client
	PageSize int
	Pause    time.Duration
	Logger   *log.Logger
}

// FetchAll requests pages from 0 until one comes back short, counting the
// items the page held rather than the records that survived. A failing
// page ends pagination; whatever was collected before it is still
// returned as a success. Cancellation is checked between pages.
func (f *Fetcher) FetchAll(ctx context.Context, report ProgressFunc) ([]voice.Record, error) {
	if report == nil {
		report = noProgress
	}
	logger := f.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("catalog")
	}
	size := f.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	pause := f.Pause
	if pause < 0 {
		pause = 0
	}

	records := []voice.Record{}
	report(0, "fetching voice list")

	for page := 0; ; page++ {
		if page > 0 {
			if err := sleep(ctx, pause); err != nil {
				report(pagePercent(page), fmt.Sprintf("listing cancelled after %d pages", page))
				logger.Debug("listing cancelled", "pages", page, "records", len(records))
				break
			}
		}

		raw, err := f.Client.ListVoices(ctx, page, size)
		if err != nil {
			report(pagePercent(page), fmt.Sprintf("page %d failed: %v", page, err))
			logger.Warn("list page failed", "page", page, "err", err)
			break
		}

		batch, items, perr := voice.ParseListPage(raw)
		if perr != nil {
			logger.Debug("unrecognized list page", "page", page, "err", perr)
		}
		records = append(records, batch...)

		switch {
		case items == 0 && page == 0:
			report(pagePercent(page+1), "page 0 returned no voices; the account may have none")
		case items == 0:
			report(pagePercent(page+1), fmt.Sprintf("page %d is empty", page))
		default:
			report(pagePercent(page+1), fmt.Sprintf("page %d: %d voices (%d total)", page, len(batch), len(records)))
		}

		if skipped := items - len(batch); skipped > 0 {
			logger.Debug("skipped list items without a voice id", "page", page, "skipped", skipped)
		}
		if items < size {
			break
		}
	}

	logger.Debug("listing complete", "records", len(records))
	return records, nil
}

// pagePercent grows by ten per page and stays under the terminal 100.
func pagePercent(pages int) int {
	return min(90, 10+10*pages)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
