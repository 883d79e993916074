package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"github.com/roadmetrics/vcount/count"
	"github.com/roadmetrics/vcount/detect"
	"github.com/roadmetrics/vcount/internal/api"
	"github.com/roadmetrics/vcount/internal/config"
	"github.com/roadmetrics/vcount/internal/db"
	"github.com/roadmetrics/vcount/internal/monitoring"
	"github.com/roadmetrics/vcount/overlay"
	"github.com/roadmetrics/vcount/track"
	"github.com/roadmetrics/vcount/video"
)

var (
	input      = flag.String("input", "0", "video source: file path or capture device index")
	replayPath = flag.String("replay", "", "replay recorded detections (JSON per line) instead of running a model")
	weights    = flag.String("weights", "yolov4.weights", "YOLO weights file")
	netConfig  = flag.String("net-config", "yolov4.cfg", "YOLO network config file")
	namesFile  = flag.String("names", "coco.names", "class names file, one label per line")
	dbPath     = flag.String("db", "counts.db", "sqlite file for the count event journal, empty disables it")
	listenAddr = flag.String("listen", ":8080", "HTTP listen address, empty disables the API")
	tuningPath = flag.String("tuning", "", "optional JSON tuning file")
	roiSpec    = flag.String("roi", "", "region vertices as x,y;x,y;... (at least 3)")
	roiShape   = flag.String("roi-shape", "rhombus", "auto region shape when -roi is empty: rhombus or rectangle")
	minConf    = flag.Float64("min-confidence", 0, "detector confidence floor, 0 takes the tuning value")
	equalize   = flag.Bool("equalize", false, "histogram-equalize frames before detection")
	display    = flag.Bool("display", false, "show the annotated video in a window")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("vcount: %v", err)
	}
}

func run() error {
	if *roiShape != "rhombus" && *roiShape != "rectangle" {
		return fmt.Errorf("unknown -roi-shape %q", *roiShape)
	}

	tuning, err := config.LoadTuning(*tuningPath)
	if err != nil {
		return err
	}

	region := &count.Region{}
	if *roiSpec != "" {
		polygon, err := parsePolygon(*roiSpec)
		if err != nil {
			return fmt.Errorf("parse -roi: %w", err)
		}
		if err := region.Set(polygon); err != nil {
			return fmt.Errorf("confirm -roi polygon: %w", err)
		}
	}

	session := count.NewSession(region, count.Config{
		Classes:        tuning.GetClasses(),
		MaxTrackPoints: tuning.GetMaxTrackPoints(),
	})

	var database *db.DB
	if *dbPath != "" {
		database, err = db.NewDB(*dbPath)
		if err != nil {
			return fmt.Errorf("open database %s: %w", *dbPath, err)
		}
		defer database.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if *listenAddr != "" {
		server := &http.Server{
			Addr:    *listenAddr,
			Handler: api.LoggingMiddleware(api.NewServer(session, database).ServeMux()),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			monitoring.Logf("http: listening on %s", *listenAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					monitoring.Logf("http: %v", err)
				}
			}()
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				monitoring.Logf("http: shutdown: %v", err)
			}
		}()
	}

	tracker := newTracker(tuning)

	var runErr error
	if *replayPath != "" {
		runErr = runReplay(ctx, session, tracker, database)
	} else {
		runErr = runVideo(ctx, session, tracker, database, tuning)
	}

	stop()
	wg.Wait()
	return runErr
}

func newTracker(tuning *config.Tuning) *track.Tracker {
	return track.NewTracker(track.Config{
		MaxDisappeared: tuning.GetMaxDisappeared(),
		MinScore:       tuning.GetMinScore(),
		HighThresh:     tuning.GetHighThresh(),
		LowThresh:      tuning.GetLowThresh(),
		TimeStep:       1.0 / tuning.GetFPS(),
		Algorithm:      track.MatchingHungarian,
	})
}

// runVideo drives the live pipeline: capture, filter, detect, track,
// count, and optionally draw.
func runVideo(ctx context.Context, session *count.Session, tracker *track.Tracker, database *db.DB, tuning *config.Tuning) error {
	capture, err := video.OpenSource(*input)
	if err != nil {
		return err
	}
	defer capture.Close()

	classes := tuning.GetClasses()
	if len(classes) == 0 {
		classes = count.DefaultClasses
	}
	minConfidence := tuning.GetMinConfidence()
	if *minConf > 0 {
		minConfidence = *minConf
	}
	var detector detect.Provider
	detector, err = detect.NewYOLO(detect.YOLOConfig{
		WeightsPath:   *weights,
		ConfigPath:    *netConfig,
		NamesPath:     *namesFile,
		MinConfidence: minConfidence,
		Keep:          classes,
	})
	if err != nil {
		return err
	}
	defer detector.Close()

	var filter video.FrameFilter = video.NopFilter{}
	if *equalize {
		filter = video.EqualizeFilter{}
	}

	var window *gocv.Window
	if *display {
		window = gocv.NewWindow("vcount")
		defer window.Close()
	}
	style := overlay.DefaultStyle()

	frame := gocv.NewMat()
	defer frame.Close()
	processed := gocv.NewMat()
	defer processed.Close()

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !capture.Read(&frame) {
			monitoring.Logf("video: stream ended after %d frames", frames)
			return nil
		}
		frames++
		ensureRegion(session.Region(), frame.Cols(), frame.Rows())

		filter.Apply(frame, &processed)
		result, err := detector.Detect(processed)
		if err != nil {
			monitoring.Logf("detect: frame %d: %v", frames, err)
			continue
		}
		detections, err := tracker.Track(toObservations(result))
		if err != nil {
			monitoring.Logf("track: frame %d: %v", frames, err)
			continue
		}
		recordFrame(database, session.ProcessFrame(detections), frames)

		if window != nil {
			overlay.Draw(&frame, buildView(session), style)
			window.IMShow(frame)
			if window.WaitKey(1) == 27 {
				monitoring.Logf("video: stopped from the window after %d frames", frames)
				return nil
			}
		}
	}
}

// runReplay drives the pipeline from a detection recording instead of a
// camera and a model.
func runReplay(ctx context.Context, session *count.Session, tracker *track.Tracker, database *db.DB) error {
	replay, err := detect.OpenReplay(*replayPath)
	if err != nil {
		return err
	}
	defer replay.Close()

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		recorded, err := replay.Next()
		if err == io.EOF {
			monitoring.Logf("replay: finished after %d frames", frames)
			return nil
		}
		if err != nil {
			return fmt.Errorf("replay frame %d: %w", frames+1, err)
		}
		frames++
		ensureRegion(session.Region(), recorded.Width, recorded.Height)

		detections, err := tracker.Track(replayObservations(recorded))
		if err != nil {
			monitoring.Logf("track: frame %d: %v", frames, err)
			continue
		}
		recordFrame(database, session.ProcessFrame(detections), frames)
	}
}

// ensureRegion confirms the auto-generated region once the frame size is
// known. A region defined via -roi or the API wins.
func ensureRegion(region *count.Region, width, height int) {
	if region.Defined() || width <= 0 || height <= 0 {
		return
	}
	w := float64(width)
	h := float64(height)
	var polygon count.Polygon
	if *roiShape == "rectangle" {
		polygon = count.AutoRectangle(w, h)
	} else {
		polygon = count.AutoRhombus(w, h)
	}
	if err := region.Set(polygon); err != nil {
		monitoring.Logf("region: auto %s: %v", *roiShape, err)
		return
	}
	monitoring.Logf("region: auto %s for %dx%d frames", *roiShape, width, height)
}

func toObservations(result *detect.Result) []track.Observation {
	observations := make([]track.Observation, 0, len(result.Rects))
	for i, rect := range result.Rects {
		observations = append(observations, track.Observation{
			Box:        count.NewRectFrom(rect),
			Class:      result.ClassNames[i],
			Confidence: result.Confidences[i],
		})
	}
	return observations
}

func replayObservations(frame *detect.ReplayFrame) []track.Observation {
	observations := make([]track.Observation, 0, len(frame.Detections))
	for _, det := range frame.Detections {
		observations = append(observations, track.Observation{
			Box:        count.NewRectFromCorners(det.Box[0], det.Box[1], det.Box[2], det.Box[3]),
			Class:      det.Class,
			Confidence: det.Confidence,
		})
	}
	return observations
}

// recordFrame logs and journals the outcome of one processed frame.
func recordFrame(database *db.DB, res count.FrameResult, frame int) {
	if res.Rejected > 0 {
		monitoring.Logf("count: frame %d: rejected %d malformed detections", frame, res.Rejected)
	}
	for _, event := range res.Events {
		monitoring.Logf("count: identity %d counted as %s, total %d", event.ID, event.Class, event.Total)
		if database == nil {
			continue
		}
		if err := database.RecordCountEvent(event); err != nil {
			monitoring.Logf("db: record count event: %v", err)
		}
	}
}

func buildView(session *count.Session) overlay.View {
	inROI := session.FrameInROI()
	trails := make(map[count.TrackID][]count.Point, len(inROI))
	for id := range inROI {
		trails[id] = session.History(id)
	}
	return overlay.View{
		Polygon: session.Region().Polygon(),
		All:     session.FrameAll(),
		InROI:   inROI,
		Trails:  trails,
		Total:   session.Total(),
		ByClass: session.ByClass(),
	}
}

// parsePolygon parses "x,y;x,y;..." into a confirmed polygon.
func parsePolygon(spec string) (count.Polygon, error) {
	builder := &count.PolygonBuilder{}
	for _, part := range strings.Split(spec, ";") {
		coords := strings.Split(strings.TrimSpace(part), ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("bad vertex %q", part)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad vertex %q: %w", part, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad vertex %q: %w", part, err)
		}
		builder.Add(x, y)
	}
	return builder.Confirm()
}
