package catalog

import "strings"

// FileType is the coarse category of a file, derived from its extension.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeDocument FileType = "document"
	FileTypeAudio    FileType = "audio"
	FileTypeArchive  FileType = "archive"
	FileTypeCode     FileType = "code"
	FileTypeOther    FileType = "other"
)

var extensionTypes = map[FileType][]string{
	FileTypeImage: {
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp",
		".svg", ".ico", ".raw", ".cr2", ".nef", ".arw",
	},
	FileTypeVideo: {
		".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm", ".m4v",
		".3gp", ".ogv", ".ts", ".m2ts", ".mts",
	},
	FileTypeDocument: {
		".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt", ".ods", ".odp",
		".xls", ".xlsx", ".ppt", ".pptx", ".csv",
	},
	FileTypeAudio:   {".mp3", ".wav", ".flac", ".ogg", ".m4a", ".aac"},
	FileTypeArchive: {".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"},
	FileTypeCode:    {".py", ".js", ".html", ".css", ".cpp", ".c", ".java"},
}

var fileTypeByExtension = func() map[string]FileType {
	m := make(map[string]FileType)
	for ft, exts := range extensionTypes {
		for _, ext := range exts {
			m[ext] = ft
		}
	}
	return m
}()

// FileTypeForExtension maps an extension (with leading dot, any case) to its FileType.
func FileTypeForExtension(ext string) FileType {
	if ft, ok := fileTypeByExtension[strings.ToLower(ext)]; ok {
		return ft
	}
	return FileTypeOther
}

// ParseFileType validates a user-supplied file type name.
func ParseFileType(s string) (FileType, bool) {
	ft := FileType(strings.ToLower(strings.TrimSpace(s)))
	switch ft {
	case FileTypeImage, FileTypeVideo, FileTypeDocument, FileTypeAudio,
		FileTypeArchive, FileTypeCode, FileTypeOther:
		return ft, true
	}
	return "", false
}
