// Package encode re-serializes composed ir trees to the tagged YAML
// vocabulary. Override flags equal to the inherited or default value
// at their position are omitted; single flags render as their shortcut
// tag and anything richer rides a !metadata: suffix.
package encode
