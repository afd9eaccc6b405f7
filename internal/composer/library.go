package composer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/sbraddock/stagehand/pkg/models"
)

// outcomePriorWeight is how many synthetic historical runs a template's
// file-declared success rate counts for when blending in live outcomes.
const outcomePriorWeight = 10

// Library holds the workflow templates loaded from a directory of YAML
// files, one template per file. It is safe for concurrent use and can
// watch its directory for changes.
type Library struct {
	dir string

	mu        sync.RWMutex
	templates map[string]*models.WorkflowTemplate
	outcomes  map[string]*outcomeStats

	watcher *fsnotify.Watcher
	done    chan struct{}
}

type outcomeStats struct {
	runs      int
	successes int
}

// OpenLibrary loads every template from dir. Files that fail to parse
// are skipped with a log line so one bad template cannot take down the
// library.
func OpenLibrary(dir string) (*Library, error) {
	l := &Library{
		dir:       dir,
		templates: make(map[string]*models.WorkflowTemplate),
		outcomes:  make(map[string]*outcomeStats),
	}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// reload re-reads every template file in the directory, replacing the
// in-memory set. Recorded outcomes survive reloads.
func (l *Library) reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("reading template directory: %w", err)
	}

	templates := make(map[string]*models.WorkflowTemplate)
	for _, entry := range entries {
		if entry.IsDir() || !isTemplateFile(entry.Name()) {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		tmpl, err := loadTemplateFile(path)
		if err != nil {
			log.Printf("[composer] skipping template %s: %v", path, err)
			continue
		}
		templates[tmpl.TemplateID] = tmpl
	}

	l.mu.Lock()
	l.templates = templates
	l.mu.Unlock()

	log.Printf("[composer] loaded %d templates from %s", len(templates), l.dir)
	return nil
}

func isTemplateFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// loadTemplateFile parses one template file and checks its essentials.
func loadTemplateFile(path string) (*models.WorkflowTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmpl models.WorkflowTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if tmpl.TemplateID == "" {
		return nil, fmt.Errorf("template has no template_id")
	}
	if len(tmpl.Phases) == 0 {
		return nil, fmt.Errorf("template %s has no phases", tmpl.TemplateID)
	}
	for _, p := range tmpl.Phases {
		if !p.Context.Valid() {
			return nil, fmt.Errorf("template %s phase %s has unknown context %q",
				tmpl.TemplateID, p.PhaseID, p.Context)
		}
	}
	return &tmpl, nil
}

// Templates returns all templates sorted by ID, with live success rates
// applied.
func (l *Library) Templates() []*models.WorkflowTemplate {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*models.WorkflowTemplate, 0, len(l.templates))
	for _, tmpl := range l.templates {
		out = append(out, l.withLiveRate(tmpl))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateID < out[j].TemplateID })
	return out
}

// Get returns the template with the given ID, or nil.
func (l *Library) Get(templateID string) *models.WorkflowTemplate {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tmpl, ok := l.templates[templateID]
	if !ok {
		return nil
	}
	return l.withLiveRate(tmpl)
}

// Len returns the number of loaded templates.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.templates)
}

// withLiveRate copies a template with its success rate blended from the
// declared rate and recorded outcomes. Callers hold at least a read lock.
func (l *Library) withLiveRate(tmpl *models.WorkflowTemplate) *models.WorkflowTemplate {
	copied := *tmpl
	if stats, ok := l.outcomes[tmpl.TemplateID]; ok && stats.runs > 0 {
		prior := tmpl.SuccessRate * outcomePriorWeight
		copied.SuccessRate = (prior + float64(stats.successes)) /
			(outcomePriorWeight + float64(stats.runs))
	}
	return &copied
}

// RecordOutcome feeds an execution result back into the template's
// success rate. Unknown template IDs are ignored.
func (l *Library) RecordOutcome(templateID string, success bool) {
	if templateID == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.templates[templateID]; !ok {
		return
	}
	stats := l.outcomes[templateID]
	if stats == nil {
		stats = &outcomeStats{}
		l.outcomes[templateID] = stats
	}
	stats.runs++
	if success {
		stats.successes++
	}
}

// Watch starts watching the template directory and reloads the library
// whenever a template file changes. Call Close to stop watching.
func (l *Library) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", l.dir, err)
	}

	l.watcher = watcher
	l.done = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isTemplateFile(filepath.Base(event.Name)) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					log.Printf("[composer] template change detected: %s", event.Name)
					if err := l.reload(); err != nil {
						log.Printf("[composer] template reload failed: %v", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[composer] template watcher error: %v", err)
			case <-l.done:
				return
			}
		}
	}()

	return nil
}

// Close stops the directory watcher if one is running.
func (l *Library) Close() {
	if l.done != nil {
		close(l.done)
		l.done = nil
	}
	if l.watcher != nil {
		l.watcher.Close()
		l.watcher = nil
	}
}
