// Package dialect classifies resolved modules by source dialect.
//
// A dialect is the syntax a module is written in when that syntax needs a
// transform before the host can execute it. Classification looks only at the
// file extension of the final resolved location, never at the import
// specifier and never at file contents.
package dialect
