package model

import "sort"

// Labels produced by rules rather than by the model
const (
	LabelDirectory = "directory"
	LabelSymlink   = "symlink"
	LabelEmpty     = "empty"
	LabelUnknown   = "unknown"
	LabelText      = "txt"
	LabelUndefined = "undefined"
)

// ContentType describes one label in the knowledge base
type ContentType struct {
	Label       string   `json:"label"`
	MimeType    string   `json:"mime_type"`
	Group       string   `json:"group"`
	Description string   `json:"description"`
	Extensions  []string `json:"extensions"`
	IsText      bool     `json:"is_text"`
}

// ContentTypes maps labels to their descriptions
type ContentTypes struct {
	byLabel map[string]ContentType
}

// NewContentTypes returns the built-in knowledge base with overrides applied
func NewContentTypes(overrides map[string]ContentType) *ContentTypes {
	kb := &ContentTypes{byLabel: make(map[string]ContentType, len(builtinContentTypes)+len(overrides))}
	for _, ct := range builtinContentTypes {
		kb.byLabel[ct.Label] = ct
	}
	for label, ct := range overrides {
		ct.Label = label
		kb.byLabel[label] = ct
	}
	return kb
}

// Lookup returns the content type for label. Labels missing from the
// knowledge base get a placeholder in the unknown group.
func (kb *ContentTypes) Lookup(label string) ContentType {
	if ct, ok := kb.byLabel[label]; ok {
		return ct
	}
	return ContentType{
		Label:       label,
		MimeType:    "application/octet-stream",
		Group:       "unknown",
		Description: label,
	}
}

// Known reports whether label has an entry in the knowledge base
func (kb *ContentTypes) Known(label string) bool {
	_, ok := kb.byLabel[label]
	return ok
}

// Labels returns every label in the knowledge base, sorted
func (kb *ContentTypes) Labels() []string {
	labels := make([]string, 0, len(kb.byLabel))
	for label := range kb.byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

var builtinContentTypes = []ContentType{
	{Label: LabelDirectory, MimeType: "inode/directory", Group: "inode", Description: "A directory"},
	{Label: LabelSymlink, MimeType: "inode/symlink", Group: "inode", Description: "Symbolic link"},
	{Label: LabelEmpty, MimeType: "inode/x-empty", Group: "inode", Description: "Empty file"},
	{Label: LabelUnknown, MimeType: "application/octet-stream", Group: "unknown", Description: "Unknown binary data"},
	{Label: LabelUndefined, MimeType: "application/undefined", Group: "undefined", Description: "Undefined"},
	{Label: LabelText, MimeType: "text/plain", Group: "text", Description: "Generic text document", Extensions: []string{"txt"}, IsText: true},

	{Label: "c", MimeType: "text/x-c", Group: "code", Description: "C source", Extensions: []string{"c", "h"}, IsText: true},
	{Label: "cpp", MimeType: "text/x-c", Group: "code", Description: "C++ source", Extensions: []string{"cc", "cpp", "hpp"}, IsText: true},
	{Label: "cs", MimeType: "text/plain", Group: "code", Description: "C# source", Extensions: []string{"cs"}, IsText: true},
	{Label: "css", MimeType: "text/css", Group: "code", Description: "CSS source", Extensions: []string{"css"}, IsText: true},
	{Label: "csv", MimeType: "text/csv", Group: "code", Description: "CSV document", Extensions: []string{"csv"}, IsText: true},
	{Label: "dockerfile", MimeType: "text/x-dockerfile", Group: "code", Description: "Dockerfile", IsText: true},
	{Label: "go", MimeType: "text/x-golang", Group: "code", Description: "Golang source", Extensions: []string{"go"}, IsText: true},
	{Label: "html", MimeType: "text/html", Group: "code", Description: "HTML document", Extensions: []string{"html", "htm"}, IsText: true},
	{Label: "ini", MimeType: "text/plain", Group: "text", Description: "INI configuration file", Extensions: []string{"ini"}, IsText: true},
	{Label: "java", MimeType: "text/x-java", Group: "code", Description: "Java source", Extensions: []string{"java"}, IsText: true},
	{Label: "javascript", MimeType: "application/javascript", Group: "code", Description: "JavaScript source", Extensions: []string{"js", "mjs"}, IsText: true},
	{Label: "json", MimeType: "application/json", Group: "code", Description: "JSON document", Extensions: []string{"json"}, IsText: true},
	{Label: "makefile", MimeType: "text/x-makefile", Group: "code", Description: "Makefile source", IsText: true},
	{Label: "markdown", MimeType: "text/markdown", Group: "text", Description: "Markdown document", Extensions: []string{"md"}, IsText: true},
	{Label: "php", MimeType: "text/x-php", Group: "code", Description: "PHP source", Extensions: []string{"php"}, IsText: true},
	{Label: "python", MimeType: "text/x-python", Group: "code", Description: "Python source", Extensions: []string{"py"}, IsText: true},
	{Label: "ruby", MimeType: "application/x-ruby", Group: "code", Description: "Ruby source", Extensions: []string{"rb"}, IsText: true},
	{Label: "rust", MimeType: "application/x-rust", Group: "code", Description: "Rust source", Extensions: []string{"rs"}, IsText: true},
	{Label: "shell", MimeType: "text/x-shellscript", Group: "code", Description: "Shell script", Extensions: []string{"sh"}, IsText: true},
	{Label: "sql", MimeType: "application/x-sql", Group: "code", Description: "SQL source", Extensions: []string{"sql"}, IsText: true},
	{Label: "toml", MimeType: "application/toml", Group: "text", Description: "Tom's obvious, minimal language", Extensions: []string{"toml"}, IsText: true},
	{Label: "typescript", MimeType: "application/typescript", Group: "code", Description: "TypeScript source", Extensions: []string{"ts"}, IsText: true},
	{Label: "xml", MimeType: "text/xml", Group: "code", Description: "XML document", Extensions: []string{"xml"}, IsText: true},
	{Label: "yaml", MimeType: "application/x-yaml", Group: "code", Description: "YAML source", Extensions: []string{"yml", "yaml"}, IsText: true},

	{Label: "pdf", MimeType: "application/pdf", Group: "document", Description: "PDF document", Extensions: []string{"pdf"}},
	{Label: "docx", MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Group: "document", Description: "Microsoft Word 2007+ document", Extensions: []string{"docx"}},
	{Label: "xlsx", MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Group: "document", Description: "Microsoft Excel 2007+ document", Extensions: []string{"xlsx"}},
	{Label: "rtf", MimeType: "text/rtf", Group: "text", Description: "Rich Text Format document", Extensions: []string{"rtf"}, IsText: true},

	{Label: "zip", MimeType: "application/zip", Group: "archive", Description: "Zip archive data", Extensions: []string{"zip"}},
	{Label: "gzip", MimeType: "application/gzip", Group: "archive", Description: "gzip compressed data", Extensions: []string{"gz"}},
	{Label: "tar", MimeType: "application/x-tar", Group: "archive", Description: "POSIX tar archive", Extensions: []string{"tar"}},
	{Label: "bzip", MimeType: "application/x-bzip2", Group: "archive", Description: "bzip2 compressed data", Extensions: []string{"bz2"}},
	{Label: "xz", MimeType: "application/x-xz", Group: "archive", Description: "XZ compressed data", Extensions: []string{"xz"}},
	{Label: "sevenzip", MimeType: "application/x-7z-compressed", Group: "archive", Description: "7-zip archive data", Extensions: []string{"7z"}},

	{Label: "elf", MimeType: "application/x-executable-elf", Group: "executable", Description: "ELF executable", Extensions: []string{"elf", "so"}},
	{Label: "pebin", MimeType: "application/x-dosexec", Group: "executable", Description: "PE Windows executable", Extensions: []string{"exe", "dll"}},
	{Label: "macho", MimeType: "application/x-mach-o", Group: "executable", Description: "Mach-O executable", Extensions: []string{"dylib"}},
	{Label: "wasm", MimeType: "application/wasm", Group: "executable", Description: "Web Assembly", Extensions: []string{"wasm"}},

	{Label: "png", MimeType: "image/png", Group: "image", Description: "PNG image data", Extensions: []string{"png"}},
	{Label: "jpeg", MimeType: "image/jpeg", Group: "image", Description: "JPEG image data", Extensions: []string{"jpg", "jpeg"}},
	{Label: "gif", MimeType: "image/gif", Group: "image", Description: "GIF image data", Extensions: []string{"gif"}},
	{Label: "webp", MimeType: "image/webp", Group: "image", Description: "WebP media file", Extensions: []string{"webp"}},
	{Label: "svg", MimeType: "image/svg+xml", Group: "image", Description: "SVG Scalable Vector Graphics image data", Extensions: []string{"svg"}, IsText: true},

	{Label: "mp3", MimeType: "audio/mpeg", Group: "audio", Description: "MP3 media file", Extensions: []string{"mp3"}},
	{Label: "wav", MimeType: "audio/x-wav", Group: "audio", Description: "Waveform Audio file (WAV)", Extensions: []string{"wav"}},
	{Label: "mp4", MimeType: "video/mp4", Group: "video", Description: "MP4 media file", Extensions: []string{"mp4"}},
	{Label: "ttf", MimeType: "font/sfnt", Group: "font", Description: "TrueType Font data", Extensions: []string{"ttf"}},
	{Label: "sqlite", MimeType: "application/x-sqlite3", Group: "application", Description: "SQLite database", Extensions: []string{"sqlite", "db"}},
}
