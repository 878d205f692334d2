package cleanup

import (
	"campus/config"
	"campus/models"
	"campus/storage"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Start schedules the orphan sweep. Blobs are written before their asset
// record, so a crash or a failed cleanup in between leaves files nothing
// points to.
func Start() *cron.Cron {
	if config.CLEANUP_SCHEDULE == "" || config.CLEANUP_SCHEDULE == "off" {
		log.Printf("Orphan sweep disabled")
		return nil
	}
	grace := time.Duration(config.CLEANUP_GRACE_MINUTES) * time.Minute
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(config.CLEANUP_SCHEDULE, func() {
		removed, err := SweepOrphans(storage.GetDefaultStorage(), grace)
		if err != nil {
			log.Printf("Orphan sweep error: %v", err)
		}
		if removed > 0 {
			log.Printf("Orphan sweep: removed %d blobs", removed)
		}
	})
	if err != nil {
		log.Printf("Orphan sweep, invalid schedule %q: %v", config.CLEANUP_SCHEDULE, err)
		return nil
	}
	c.Start()
	log.Printf("Orphan sweep scheduled: %s", config.CLEANUP_SCHEDULE)
	return c
}

// SweepOrphans deletes blobs that no asset references and that were last
// modified more than grace ago. Younger blobs may belong to an upload whose
// record is not committed yet.
func SweepOrphans(store storage.BlobStore, grace time.Duration) (removed int, err error) {
	referenced, err := models.ReferencedBlobs()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-grace)
	orphans := []string{}
	err = store.List(func(name string, modified time.Time) error {
		if !referenced[name] && modified.Before(cutoff) {
			orphans = append(orphans, name)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, name := range orphans {
		if err := store.Delete(name); err != nil {
			log.Printf("Orphan sweep, cannot delete %s: %v", name, err)
			continue
		}
		removed++
	}
	return removed, nil
}
