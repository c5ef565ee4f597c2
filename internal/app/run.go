package app

import (
	"fmt"
	"log"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"samplemap/atlas"
)

const fyneAppID = "studio.samplemap"

const configFile = "config.json"

// Run initializes the pipeline and starts the desktop UI.
func Run() error {
	logger := log.New(os.Stderr, "samplemap ", log.LstdFlags)

	cfg, err := atlas.LoadConfig(configFile)
	if err != nil {
		return err
	}

	assigner := atlas.NewAssigner(nil, logger)
	svc := NewService(cfg, configFile, atlas.NewAxisPairProjector(), assigner, logger)
	arbiter := NewPreviewArbiter(newBeepPlayer(), logger)

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, svc, arbiter, logger)

	if cfg.SamplesDir != "" {
		go func() {
			records, err := atlas.LoadRecords(cfg.SamplesDir)
			if err != nil {
				logger.Printf("initial record load: %v", err)
				return
			}
			u.appendLog(fmt.Sprintf("loaded %d analyses from %s", len(records), cfg.SamplesDir))
			svc.SetRecords(records)
		}()
	}

	u.w.ShowAndRun()
	arbiter.Stop()
	return nil
}
