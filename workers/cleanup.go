package workers

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/facette/natsort"
	"github.com/pixelfall/gallerybackend/media"
	"github.com/pixelfall/gallerybackend/repository"
)

// OrphanSweeper periodically reclaims upload files whose photo record no
// longer exists: originals left behind by failed ingestions and variants
// left behind by deletions. files younger than the grace window are
// never touched so an upload still in flight cannot be swept.
type OrphanSweeper struct {
	Photos      repository.PhotoRepositoryInterface
	Store       media.Store
	UploadsPath string
	Interval    time.Duration
	Grace       time.Duration

	StopChan chan struct{}
	Wg       sync.WaitGroup
}

func NewOrphanSweeper(photos repository.PhotoRepositoryInterface, store media.Store, uploadsPath string, interval, grace time.Duration) *OrphanSweeper {
	return &OrphanSweeper{
		Photos:      photos,
		Store:       store,
		UploadsPath: uploadsPath,
		Interval:    interval,
		Grace:       grace,
		StopChan:    make(chan struct{}),
	}
}

// Start launches the sweep loop in a background goroutine
func (s *OrphanSweeper) Start() {
	s.Wg.Add(1)
	go s.run()
	log.Printf("Started orphan sweeper (interval %s, grace %s)", s.Interval, s.Grace)
}

func (s *OrphanSweeper) run() {
	defer s.Wg.Done()
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed, err := s.Sweep(); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			} else if removed > 0 {
				log.Printf("sweeper: removed %d orphan file(s)", removed)
			}
		case <-s.StopChan:
			log.Println("Orphan sweeper stopping: stop signal received")
			return
		}
	}
}

// Sweep runs one pass and returns how many orphans were removed.
// per-file failures are logged and skipped.
func (s *OrphanSweeper) Sweep() (int, error) {
	photos, err := s.Photos.ListAll(nil)
	if err != nil {
		return 0, err
	}
	live := make(map[string]bool, len(photos))
	for i := range photos {
		live[photos[i].Filename()] = true
	}

	entries, err := os.ReadDir(s.UploadsPath)
	if err != nil {
		return 0, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	natsort.Sort(names)

	cutoff := time.Now().Add(-s.Grace)
	removed := 0
	for _, name := range names {
		if live[name] {
			continue
		}

		fullPath, err := s.Store.FullPath(media.AssetTypeOriginal, name)
		if err != nil {
			log.Printf("sweeper: skipping %s: %v", name, err)
			continue
		}
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			// too fresh; could be an ingestion still in flight
			continue
		}

		failed := false
		for _, assetType := range []media.AssetType{media.AssetTypeOriginal, media.AssetTypeCompressed, media.AssetTypeThumbnail} {
			if err := s.Store.Delete(assetType, name); err != nil {
				log.Printf("sweeper: failed to delete %s variant of %s: %v", assetType, name, err)
				failed = true
			}
		}
		if !failed {
			removed++
			log.Printf("sweeper: reclaimed orphan %s", name)
		}
	}
	return removed, nil
}

// Stop signals the loop to exit and waits for it
func (s *OrphanSweeper) Stop() {
	log.Println("Stopping orphan sweeper...")
	close(s.StopChan)
	s.Wg.Wait()
	log.Println("Orphan sweeper stopped")
}
