// Package files locates movement workbooks on disk.
//
// The reload job accepts either a workbook path or a drop folder. For a
// folder, ResolveWorkbook picks the most recently modified .xlsx, .xls or
// .csv file, ignoring Office lock files and empty files.
package files
