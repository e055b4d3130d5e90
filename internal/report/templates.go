package report

// markdownTemplate is the layout of the Markdown report.
const markdownTemplate = `# Performance Test Report

Total tests run: {{len .Results}}
Report generated at: {{timestamp .GeneratedAt}}
Run ID: {{.RunID}}
{{- if .Environment}}
Environment: {{.Environment}}
{{- end}}

## Test Results
{{range .Sorted}}
### {{.Name}}{{if .Baseline}} (baseline){{end}}
- Execution time: {{seconds .ExecutionTime}} seconds
- Memory usage: {{bytes .MemoryUsage}}
- Operations per second: {{ops .OpsPerSecond}}
- Success rate: {{percent .SuccessRate}}
- Error count: {{.ErrorCount}}
{{- if gt .Latency.Count 0}}
- Latency: p50 {{duration .Latency.P50}}, p90 {{duration .Latency.P90}}, p95 {{duration .Latency.P95}}, p99 {{duration .Latency.P99}}
{{- end}}
{{end}}
{{- if .Comparisons}}
## Performance Improvements
{{range .Comparisons}}
### {{.Name}} vs {{$.Baseline}}
- Speedup: {{speedup .Speedup}}
- Memory change: {{signedBytes .MemoryChange}}
{{end}}
{{- end}}
{{- if .HasRecommendations}}
## Recommendations

1. **Fastest implementation**: {{.Recommendations.Fastest}}
2. **Most memory efficient**: {{.Recommendations.MostMemoryEfficient}}
3. **Most reliable**: {{.Recommendations.MostReliable}}
{{end}}`
