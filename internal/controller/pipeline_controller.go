// internal/controller/pipeline_controller.go
package controller

import (
    "context"
    "encoding/json"
    "net/http"

    "github.com/unclebandit/genesys-campaign-sync/internal/repository"
)

// StageRunner triggers pipeline stages through the same single-flight
// gates the scheduler uses.
type StageRunner interface {
    RunCatalogStage(ctx context.Context) bool
    RunSyncStage(ctx context.Context) bool
    RunReconcileOnly(ctx context.Context) bool
    RunPurgeStage(ctx context.Context) bool
}

// PipelineController is the small ops surface: health, ingestion stats and
// manual stage triggers.
type PipelineController struct {
    Runner      StageRunner
    AttemptRepo repository.AttemptRepositoryInterface
}

func (c *PipelineController) Healthz(w http.ResponseWriter, r *http.Request) {
    json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (c *PipelineController) Stats(w http.ResponseWriter, r *http.Request) {
    stats, err := c.AttemptRepo.Stats()
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }
    json.NewEncoder(w).Encode(map[string]interface{}{
        "attempts": stats,
    })
}

func (c *PipelineController) RunCatalogs(w http.ResponseWriter, r *http.Request) {
    c.trigger(w, c.Runner.RunCatalogStage)
}

func (c *PipelineController) RunSync(w http.ResponseWriter, r *http.Request) {
    c.trigger(w, c.Runner.RunSyncStage)
}

func (c *PipelineController) RunReconcile(w http.ResponseWriter, r *http.Request) {
    c.trigger(w, c.Runner.RunReconcileOnly)
}

func (c *PipelineController) RunPurge(w http.ResponseWriter, r *http.Request) {
    c.trigger(w, c.Runner.RunPurgeStage)
}

// trigger runs the stage in the background; a stage already in flight
// reports itself as skipped via its gate, so the trigger always accepts.
func (c *PipelineController) trigger(w http.ResponseWriter, run func(ctx context.Context) bool) {
    go run(context.Background())
    w.WriteHeader(http.StatusAccepted)
    json.NewEncoder(w).Encode(map[string]string{"status": "triggered"})
}
