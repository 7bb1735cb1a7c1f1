package api

import (
	"github.com/atlasmap-sc/scatter/internal/dataset"
)

// DatasetInfo contains information about a dataset for the API response.
type DatasetInfo struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Points    int            `json:"points"`
	Secondary bool           `json:"secondary"`
	Value     bool           `json:"value"`
	Bounds    dataset.Bounds `json:"bounds"`
}

// DatasetRegistry holds the loaded datasets.
type DatasetRegistry struct {
	datasets       map[string]*dataset.Dataset
	defaultDataset string
	datasetOrder   []string
	title          string
}

// NewDatasetRegistry creates a new dataset registry.
func NewDatasetRegistry(defaultDataset, title string) *DatasetRegistry {
	return &DatasetRegistry{
		datasets:       make(map[string]*dataset.Dataset),
		defaultDataset: defaultDataset,
		title:          title,
	}
}

// Register adds a dataset. Registration order is the listing order.
func (r *DatasetRegistry) Register(ds *dataset.Dataset) {
	if _, ok := r.datasets[ds.ID]; !ok {
		r.datasetOrder = append(r.datasetOrder, ds.ID)
	}
	r.datasets[ds.ID] = ds
	if r.defaultDataset == "" {
		r.defaultDataset = ds.ID
	}
}

// Get returns a dataset, or nil if not found.
func (r *DatasetRegistry) Get(datasetID string) *dataset.Dataset {
	return r.datasets[datasetID]
}

// Default returns the default dataset.
func (r *DatasetRegistry) Default() *dataset.Dataset {
	return r.datasets[r.defaultDataset]
}

// DefaultDatasetID returns the default dataset ID.
func (r *DatasetRegistry) DefaultDatasetID() string {
	return r.defaultDataset
}

// DatasetIDs returns all dataset IDs in registration order.
func (r *DatasetRegistry) DatasetIDs() []string {
	return r.datasetOrder
}

// Title returns the configured site title.
func (r *DatasetRegistry) Title() string {
	if r.title != "" {
		return r.title
	}
	return "Scatter"
}

// Datasets returns dataset info for all registered datasets.
func (r *DatasetRegistry) Datasets() []DatasetInfo {
	infos := make([]DatasetInfo, 0, len(r.datasetOrder))
	for _, id := range r.datasetOrder {
		ds := r.datasets[id]
		infos = append(infos, DatasetInfo{
			ID:        id,
			Name:      id,
			Points:    ds.Len(),
			Secondary: ds.HasSecondary(),
			Value:     ds.HasValue(),
			Bounds:    ds.Bounds,
		})
	}
	return infos
}
