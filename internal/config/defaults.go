package config

// Entry is a single configuration key with its default value.
type Entry struct {
	Key         string
	Value       any
	Description string
}

// DefaultEntries returns every configuration key with its default. They are
// registered with viper so env vars and partial files fall back to them.
func DefaultEntries() []Entry {
	return []Entry{
		// ===================
		// Workspace layout
		// ===================
		{
			Key:         "workdir",
			Value:       ".",
			Description: "Workspace root; relative paths below resolve against it",
		},
		{
			Key:         "input_dir",
			Value:       "arquivos",
			Description: "Directory holding the invoice PDFs, renamed in place",
		},
		{
			Key:         "scratch_dir",
			Value:       "tmp",
			Description: "Directory for temporary page images",
		},
		{
			Key:         "success_log",
			Value:       "out.log",
			Description: "Log of renamed documents",
		},
		{
			Key:         "failure_log",
			Value:       "falhas.log",
			Description: "Log of quarantined documents",
		},
		{
			Key:         "file_suffix",
			Value:       ".pdf",
			Description: "Only files with this suffix (case-insensitive) are processed",
		},
		{
			Key:         "failed_prefix",
			Value:       "FALHOU - ",
			Description: "Prefix given to quarantined documents",
		},

		// ===================
		// OCR
		// ===================
		{
			Key:         "ocr.workers",
			Value:       50,
			Description: "Number of OCR engines in the pool",
		},
		{
			Key:         "ocr.language",
			Value:       "por",
			Description: "Tesseract language",
		},
		{
			Key:         "ocr.job_timeout",
			Value:       "5m",
			Description: "Maximum time to wait for one page; 0 waits forever",
		},

		// ===================
		// Rasterization
		// ===================
		{
			Key:         "raster.dpi",
			Value:       216,
			Description: "Render resolution for page images",
		},
		{
			Key:         "raster.command",
			Value:       "pdftoppm",
			Description: "Poppler renderer binary",
		},
		{
			Key:         "raster.workers",
			Value:       0,
			Description: "Concurrent renderer processes; 0 uses the CPU count",
		},

		{
			Key:         "log_level",
			Value:       "info",
			Description: "debug, info, warn or error",
		},
	}
}
