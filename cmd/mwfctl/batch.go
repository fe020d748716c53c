package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"example.com/mwfgate/internal/common"
	"example.com/mwfgate/internal/manifest"
	"example.com/mwfgate/internal/recording"
	"example.com/mwfgate/internal/report"
)

type batchJob struct {
	input  string
	name   string
	outDir string
}

type batchResult struct {
	outputs []string
	err     error
}

func (a *app) batchCmd(args []string) error {
	flags := a.flags("batch")
	inDir := flags.String("in", ".", "input directory")
	outDir := flags.String("out-dir", "out", "results directory")
	concurrency := flags.Int("concurrency", a.cfg.Concurrency, "recordings processed in parallel")
	strict := flags.Bool("strict", a.cfg.Strict, "reject unknown blocks")
	withPDF := flags.Bool("pdf", false, "also render a PDF report per recording")
	langFlag := flags.String("lang", a.cfg.Lang, "report language (en, de)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	lang, err := report.ParseLanguage(*langFlag)
	if err != nil {
		return err
	}
	jobs, err := findRecordings(*inDir, *outDir)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no waveform files under %s", *inDir)
	}

	workers := *concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	results := make([]batchResult, len(jobs))
	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				outputs, err := processRecording(jobs[i], *strict, *withPDF, lang)
				results[i] = batchResult{outputs: outputs, err: err}
			}
		}()
	}
	for i := range jobs {
		queue <- i
	}
	close(queue)
	wg.Wait()

	var produced []string
	failed := 0
	for i, res := range results {
		if res.err != nil {
			failed++
			fmt.Fprintf(a.stdout, "FAIL %s: %v\n", jobs[i].name, res.err)
			continue
		}
		fmt.Fprintf(a.stdout, "OK   %s\n", jobs[i].name)
		produced = append(produced, res.outputs...)
	}
	if len(produced) > 0 {
		m, err := manifest.Build(produced)
		if err != nil {
			return fmt.Errorf("manifest build: %w", err)
		}
		manifestPath := filepath.Join(*outDir, "manifest.json")
		if err := manifest.Save(m, manifestPath); err != nil {
			return fmt.Errorf("manifest save: %w", err)
		}
		fmt.Fprintln(a.stdout, "Wrote", manifestPath)
	}
	common.Logf("batch %s: %d recording(s), %d failed", *inDir, len(jobs), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d recordings failed", failed, len(jobs))
	}
	return nil
}

// findRecordings lists waveform files below inDir in lexical order. Each
// gets a results directory named after its path relative to inDir.
func findRecordings(inDir, outDir string) ([]batchJob, error) {
	var jobs []batchJob
	err := filepath.WalkDir(inDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != inDir && filepath.Clean(path) == filepath.Clean(outDir) {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".mwf", ".mfer":
		default:
			return nil
		}
		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(rel, filepath.Ext(rel))
		jobs = append(jobs, batchJob{input: path, name: filepath.ToSlash(name), outDir: filepath.Join(outDir, name)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", inDir, err)
	}
	return jobs, nil
}

func processRecording(job batchJob, strict, withPDF bool, lang report.Language) ([]string, error) {
	rec, err := recording.Load(job.input, recording.LoadOptions{Strict: strict})
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(job.outDir, 0o755); err != nil {
		return nil, &recording.IOError{Op: "mkdir", Path: job.outDir, Err: err}
	}
	csvPath := filepath.Join(job.outDir, "waveform.csv")
	if err := rec.WriteCSV(csvPath); err != nil {
		return nil, err
	}
	rep := report.Build(job.input, rec.SourceSHA256(), rec.Model)
	jsonPath := filepath.Join(job.outDir, "report.json")
	if err := report.SaveJSON(rep, jsonPath); err != nil {
		return nil, fmt.Errorf("write json: %w", err)
	}
	outputs := []string{csvPath, jsonPath}
	if withPDF {
		pdfPath := filepath.Join(job.outDir, "report.pdf")
		if err := report.SavePDF(rep, pdfPath, lang); err != nil {
			return nil, fmt.Errorf("write pdf: %w", err)
		}
		outputs = append(outputs, pdfPath)
	}
	return outputs, nil
}
