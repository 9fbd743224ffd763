// Package codec reads and writes [ir.Node] values as YAML or JSON.
package codec
