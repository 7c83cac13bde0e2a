// Package extract reads candidate rows from the analytics warehouse and
// writes them as newline-delimited JSON, the input format of a load run.
//
// Rows keep the warehouse's logical shape: flat scalars, text arrays, arrays
// of nested structs and one nested struct. ConvertRow only fills in empty
// values; all type coercion happens later in package normalize.
package extract
