package main

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/LdDl/celltrack-go/celltrack"
)

// sequenceDocument is the on-disk form of a segmented time-lapse. JSON is accepted as well, being valid YAML
type sequenceDocument struct {
	Frames []frameDocument `yaml:"frames"`
}

type frameDocument struct {
	Cells []cellDocument `yaml:"cells"`
}

type cellDocument struct {
	// Optional label, unique within the frame
	ID       string       `yaml:"id"`
	Polygon  [][2]float64 `yaml:"polygon"`
	Boundary bool         `yaml:"boundary"`
	// Labels of adjacent cells of the same frame, or their indices when cells are unlabeled
	Neighbors []string `yaml:"neighbors"`
}

func loadSequenceFile(path string) (*celltrack.Sequence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open sequence")
	}
	defer file.Close()
	return decodeSequence(file)
}

func decodeSequence(r io.Reader) (*celltrack.Sequence, error) {
	var doc sequenceDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "Can't decode sequence")
	}
	if len(doc.Frames) == 0 {
		return nil, celltrack.ErrEmptySequence
	}
	seq := celltrack.NewSequence(nil)
	for t, frameDoc := range doc.Frames {
		if err := buildFrame(seq.AddFrame(), frameDoc); err != nil {
			return nil, errors.Wrapf(err, "frame %d", t)
		}
	}
	return seq, nil
}

func buildFrame(frame *celltrack.Frame, doc frameDocument) error {
	slots := make(map[string]int, len(doc.Cells))
	for i, cellDoc := range doc.Cells {
		if len(cellDoc.Polygon) < 3 {
			return errors.Errorf("cell %d: polygon needs at least 3 vertices, got %d", i, len(cellDoc.Polygon))
		}
		points := make([]orb.Point, len(cellDoc.Polygon))
		for j, vertex := range cellDoc.Polygon {
			points[j] = orb.Point{vertex[0], vertex[1]}
		}
		label := strings.TrimSpace(cellDoc.ID)
		if label != "" {
			if _, ok := slots[label]; ok {
				return errors.Errorf("cell %d: duplicate id %q", i, label)
			}
		}
		ref := frame.AddLabeledCell(label, celltrack.NewPolygon(points...), cellDoc.Boundary)
		if label != "" {
			slots[label] = ref.Slot
		}
	}
	for i, cellDoc := range doc.Cells {
		for _, neighbor := range cellDoc.Neighbors {
			slot, err := resolveNeighbor(slots, neighbor)
			if err != nil {
				return errors.Wrapf(err, "cell %d", i)
			}
			if err := frame.Connect(i, slot); err != nil {
				return errors.Wrapf(err, "cell %d", i)
			}
		}
	}
	return nil
}

func resolveNeighbor(slots map[string]int, neighbor string) (int, error) {
	key := strings.TrimSpace(neighbor)
	if slot, ok := slots[key]; ok {
		return slot, nil
	}
	slot, err := strconv.Atoi(key)
	if err != nil {
		return 0, errors.Errorf("unknown neighbor %q", neighbor)
	}
	return slot, nil
}

func loadTrackerConfig(path string) (celltrack.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return celltrack.DefaultConfig(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return celltrack.Config{}, errors.Wrap(err, "Can't open config")
	}
	defer file.Close()
	return celltrack.LoadConfig(file)
}
