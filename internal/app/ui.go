package app

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"samplemap/atlas"
)

const logDebounceInterval = 150 * time.Millisecond

type uiState struct {
	service *Service
	rec     *Reconciler
	router  *HitTestRouter
	arbiter *PreviewArbiter
	logger  *log.Logger

	w          fyne.Window
	surface    *mapSurface
	mapContent *fyne.Container
	status     *widget.Label
	hoverInfo  *widget.Label
	logView    *widget.Entry
	statusBind binding.String
	logBind    binding.String

	logLines    []string
	logMu       sync.Mutex
	logUpdateCh chan struct{}

	// cfgCh feeds a single worker so config edits apply in the order the
	// controls emitted them.
	cfgCh chan func(*atlas.Config)

	points      []atlas.SamplePoint
	surfaceSize fyne.Size
	// hoverPlaying is the sample whose preview was started by hover, so a
	// hover-leave never kills a tap-started session.
	hoverPlaying string

	pauseBtn *widget.Button
}

func buildUI(a fyne.App, svc *Service, arbiter *PreviewArbiter, logger *log.Logger) *uiState {
	u := &uiState{service: svc, arbiter: arbiter, logger: logger}
	u.w = a.NewWindow("Sample Map")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Ready")
	u.logBind = binding.NewString()
	u.startLogUpdater()
	u.startConfigWorker()

	u.mapContent = container.NewWithoutLayout()
	u.rec = NewReconciler(u.mapContent, logger)
	u.router = NewHitTestRouter(u.rec)
	u.router.OnHoverEnter = u.onHoverEnter
	u.router.OnHoverLeave = u.onHoverLeave
	u.router.OnTap = u.onTap

	// The map region degrades to an inline notice if the surface cannot be
	// built; the rest of the window stays usable.
	var mapRegion fyne.CanvasObject
	surface, err := newMapSurface(u.mapContent, u.router, u.onSurfaceResize)
	if err != nil {
		if logger != nil {
			logger.Printf("map surface unavailable: %v", err)
		}
		notice := widget.NewLabel("Map view unavailable: " + err.Error())
		notice.Alignment = fyne.TextAlignCenter
		mapRegion = container.NewCenter(notice)
	} else {
		u.surface = surface
		mapRegion = surface
	}

	svc.OnPoints = func(points []atlas.SamplePoint) {
		fyne.Do(func() { u.applyPoints(points) })
	}
	svc.OnStatus = func(msg string) { u.setStatus(msg) }

	u.status = widget.NewLabelWithData(u.statusBind)
	u.hoverInfo = widget.NewLabel("")
	u.hoverInfo.Wrapping = fyne.TextWrapWord

	u.logView = widget.NewEntryWithData(u.logBind)
	u.logView.MultiLine = true
	u.logView.Wrapping = fyne.TextWrapWord
	u.logView.SetPlaceHolder("Activity log")
	u.logView.Disable()

	loadBtn := widget.NewButtonWithIcon("Load Analyses", theme.FolderOpenIcon(), func() { u.onLoadRecords() })
	samplesBtn := widget.NewButtonWithIcon("Samples Folder", theme.FolderIcon(), func() { u.onPickSamplesDir() })
	weightsBtn := widget.NewButtonWithIcon("Import Weights", theme.DownloadIcon(), func() { u.onImportWeights() })
	u.pauseBtn = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), func() { u.onTogglePause() })
	stopBtn := widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		u.arbiter.Stop()
		u.hoverPlaying = ""
	})

	left := container.NewVBox(
		widget.NewLabelWithStyle("Data", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		loadBtn,
		samplesBtn,
		weightsBtn,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Map", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.buildControls(),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Preview", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewGridWithColumns(2, u.pauseBtn, stopBtn),
		u.hoverInfo,
		widget.NewSeparator(),
		u.status,
		widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewMax(u.logView),
	)

	split := container.NewHSplit(left, mapRegion)
	split.Offset = 0.28

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1180, 760))
	return u
}

// buildControls assembles the pipeline controls. Every change funnels into
// Service.UpdateConfig; reclustering itself is deferred by the assigner, so
// dragging a slider stays smooth.
func (u *uiState) buildControls() fyne.CanvasObject {
	cfg := u.service.Config()

	normSel := widget.NewSelect([]string{
		string(atlas.NormMinMax), string(atlas.NormRobust), string(atlas.NormZScore),
	}, func(v string) {
		u.updateConfig(func(c *atlas.Config) { c.Normalization = atlas.NormalizationMethod(v) })
	})
	normSel.SetSelected(string(cfg.Normalization))

	methodSel := widget.NewSelect([]string{
		string(atlas.MethodDensity), string(atlas.MethodPartition), string(atlas.MethodDensityHier),
	}, func(v string) {
		u.updateConfig(func(c *atlas.Config) { c.Cluster.Method = atlas.Method(v) })
	})
	methodSel.SetSelected(string(cfg.Cluster.Method))

	projSel := widget.NewSelect([]string{
		string(atlas.AlgorithmPCA), string(atlas.AlgorithmTSNE), string(atlas.AlgorithmUMAP),
	}, func(v string) {
		u.updateConfig(func(c *atlas.Config) { c.Projection = atlas.Algorithm(v) })
	})
	projSel.SetSelected(string(cfg.Projection))

	epsSlider := widget.NewSlider(0.02, 0.30)
	epsSlider.Step = 0.01
	epsSlider.Value = cfg.Cluster.Params.Eps
	epsSlider.OnChanged = func(v float64) {
		u.updateConfig(func(c *atlas.Config) { c.Cluster.Params.Eps = v })
	}

	minPtsSlider := widget.NewSlider(2, 12)
	minPtsSlider.Step = 1
	minPtsSlider.Value = float64(cfg.Cluster.Params.MinPoints)
	minPtsSlider.OnChanged = func(v float64) {
		u.updateConfig(func(c *atlas.Config) { c.Cluster.Params.MinPoints = int(v) })
	}

	kSlider := widget.NewSlider(2, 20)
	kSlider.Step = 1
	kSlider.Value = float64(cfg.Cluster.Params.K)
	kSlider.OnChanged = func(v float64) {
		u.updateConfig(func(c *atlas.Config) { c.Cluster.Params.K = int(v) })
	}

	tagCheck := widget.NewCheck("Tag features", func(b bool) {
		u.updateConfig(func(c *atlas.Config) { c.Tags.Enabled = b })
	})
	tagCheck.SetChecked(cfg.Tags.Enabled)

	tagWeightSlider := widget.NewSlider(0.0, 2.0)
	tagWeightSlider.Step = 0.05
	tagWeightSlider.Value = cfg.Tags.Weight
	tagWeightSlider.OnChanged = func(v float64) {
		u.updateConfig(func(c *atlas.Config) { c.Tags.Weight = v })
	}

	hoverCheck := widget.NewCheck("Preview on hover", func(b bool) {
		u.updateConfig(func(c *atlas.Config) { c.HoverPreview = b })
	})
	hoverCheck.SetChecked(cfg.HoverPreview)

	return widget.NewForm(
		widget.NewFormItem("Normalization", normSel),
		widget.NewFormItem("Clustering", methodSel),
		widget.NewFormItem("Projection", projSel),
		widget.NewFormItem("Eps", epsSlider),
		widget.NewFormItem("Min points", minPtsSlider),
		widget.NewFormItem("K", kSlider),
		widget.NewFormItem("", tagCheck),
		widget.NewFormItem("Tag weight", tagWeightSlider),
		widget.NewFormItem("", hoverCheck),
	)
}

func (u *uiState) startConfigWorker() {
	if u.cfgCh != nil {
		return
	}
	u.cfgCh = make(chan func(*atlas.Config), 32)
	go func() {
		for fn := range u.cfgCh {
			u.service.UpdateConfig(fn)
		}
	}()
}

func (u *uiState) updateConfig(fn func(*atlas.Config)) {
	if u.cfgCh == nil {
		u.service.UpdateConfig(fn)
		return
	}
	u.cfgCh <- fn
}

func (u *uiState) applyPoints(points []atlas.SamplePoint) {
	u.points = points
	if u.surfaceSize.Width > 0 && u.surfaceSize.Height > 0 {
		u.rec.Reconcile(points, u.surfaceSize)
	}
}

func (u *uiState) onSurfaceResize(size fyne.Size) {
	u.surfaceSize = size
	u.rec.Reconcile(u.points, size)
}

func (u *uiState) onHoverEnter(p atlas.SamplePoint) {
	fyne.Do(func() { u.hoverInfo.SetText(describePoint(p)) })
	if !u.service.HoverPreview() {
		return
	}
	locator, ok := u.service.LocatorFor(p.ID)
	if !ok {
		return
	}
	if u.arbiter.Play(p.ID, locator) {
		u.hoverPlaying = p.ID
	}
}

func (u *uiState) onHoverLeave(id string) {
	fyne.Do(func() { u.hoverInfo.SetText("") })
	if u.hoverPlaying == id {
		u.arbiter.Stop()
		u.hoverPlaying = ""
	}
}

func (u *uiState) onTap(p atlas.SamplePoint) {
	u.arbiter.HandleTap(p.ID, func(id string) {
		u.hoverPlaying = ""
		u.rec.SetSelection(id)
		fyne.Do(func() { u.hoverInfo.SetText(describePoint(p)) })
		if locator, ok := u.service.LocatorFor(id); ok {
			u.arbiter.Play(id, locator)
		}
		u.appendLog(fmt.Sprintf("selected %s", p.Name))
	})
}

func (u *uiState) onTogglePause() {
	if u.arbiter.Pause() {
		return
	}
	u.arbiter.Resume()
}

func (u *uiState) onLoadRecords() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		dir := uri.Path()
		go func() {
			records, err := atlas.LoadRecords(dir)
			if err != nil {
				u.appendLog(fmt.Sprintf("load failed: %v", err))
				fyne.Do(func() { dialog.ShowError(err, u.w) })
				return
			}
			u.appendLog(fmt.Sprintf("loaded %d analyses from %s", len(records), dir))
			u.service.SetRecords(records)
		}()
	}, u.w)
	fd.Show()
}

func (u *uiState) onPickSamplesDir() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		dir := uri.Path()
		u.updateConfig(func(c *atlas.Config) { c.SamplesDir = dir })
		u.appendLog(fmt.Sprintf("samples folder: %s", dir))
	}, u.w)
	fd.Show()
}

func (u *uiState) onImportWeights() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		go func() {
			if err := u.service.ImportWeights(path); err != nil {
				u.appendLog(fmt.Sprintf("weight import failed: %v", err))
				fyne.Do(func() { dialog.ShowError(err, u.w) })
				return
			}
			u.appendLog("learned weights imported")
		}()
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	fd.Show()
}

func describePoint(p atlas.SamplePoint) string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.Cluster.IsNoise() {
		b.WriteString("  (unclustered)")
	} else if idx, ok := p.Cluster.Index(); ok {
		fmt.Fprintf(&b, "  (cluster %d)", idx+1)
	}
	if p.Record != nil && len(p.Record.Tags) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(p.Record.Tags, ", "))
	}
	return b.String()
}

func (u *uiState) appendLog(msg string) {
	now := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", now, msg)

	u.logMu.Lock()
	u.logLines = append(u.logLines, line)
	if len(u.logLines) > 200 {
		u.logLines = u.logLines[len(u.logLines)-200:]
	}
	u.logMu.Unlock()

	if u.logUpdateCh == nil {
		u.flushLog()
		return
	}
	select {
	case u.logUpdateCh <- struct{}{}:
	default:
	}
}

func (u *uiState) startLogUpdater() {
	if u.logUpdateCh != nil {
		return
	}
	u.logUpdateCh = make(chan struct{}, 1)
	go u.logUpdateLoop()
}

func (u *uiState) logUpdateLoop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-u.logUpdateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			u.flushLog()
		}
	}
}

func (u *uiState) flushLog() {
	u.logMu.Lock()
	text := strings.Join(u.logLines, "\n")
	u.logMu.Unlock()
	_ = u.logBind.Set(text)
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}
