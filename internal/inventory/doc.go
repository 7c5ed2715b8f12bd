// Package inventory decodes software inventory exports into domain records.
//
// Two layouts are accepted: a JSON array of objects, or JSON lines (one
// object per line). Field names match case-insensitively:
//
//	{"computer": "web-01", "name": "Ubuntu", "version": "20.04.6 LTS", "publisher": "Canonical"}
package inventory
