package viewmodel

import (
	"time"

	"github.com/noah-isme/stellarfs-api/internal/models"
)

// FileSchema describes files. Permissions act as the tag list.
func FileSchema() Schema[models.File] {
	return Schema[models.File]{
		Kind: models.ResourceFiles,
		Fields: []Field[models.File]{
			StringField("id", func(f models.File) string { return f.ID }),
			StringField("name", func(f models.File) string { return f.Name }),
			StringField("type", func(f models.File) string { return f.Type }),
			IntField("size", func(f models.File) int64 { return f.Size }),
			TimeField("last_modified", func(f models.File) time.Time { return f.LastModified }),
			StringField("owner", func(f models.File) string { return f.Owner }),
			ListField("permissions", func(f models.File) []string { return f.Permissions }),
			StringField("path", func(f models.File) string { return f.Path }),
			IntField("version", func(f models.File) int64 { return int64(f.Version) }),
			IntField("replicas", func(f models.File) int64 { return int64(f.Replicas) }),
		},
		Searchable: []string{"name", "owner", "path"},
		TypeField:  "type",
		TimeField:  "last_modified",
		SizeField:  "size",
		OwnerField: "owner",
		TagsField:  "permissions",
		Tabs:       []models.Tab{models.TabAll, models.TabRecent, models.TabMine},
	}
}

// MetadataSchema describes catalogued file metadata.
func MetadataSchema() Schema[models.MetadataEntry] {
	return Schema[models.MetadataEntry]{
		Kind: models.ResourceMetadata,
		Fields: []Field[models.MetadataEntry]{
			StringField("id", func(m models.MetadataEntry) string { return m.ID }),
			StringField("filename", func(m models.MetadataEntry) string { return m.Filename }),
			StringField("type", func(m models.MetadataEntry) string { return m.Type }),
			IntField("size", func(m models.MetadataEntry) int64 { return m.Size }),
			TimeField("created", func(m models.MetadataEntry) time.Time { return m.Created }),
			TimeField("modified", func(m models.MetadataEntry) time.Time { return m.Modified }),
			StringField("owner", func(m models.MetadataEntry) string { return m.Owner }),
			ListField("tags", func(m models.MetadataEntry) []string { return m.Tags }),
			StringField("version", func(m models.MetadataEntry) string { return m.Version }),
		},
		Searchable: []string{"filename", "type", "owner", "tags"},
		TypeField:  "type",
		TimeField:  "modified",
		SizeField:  "size",
		OwnerField: "owner",
		TagsField:  "tags",
		Tabs:       []models.Tab{models.TabAll, models.TabRecent, models.TabMine},
	}
}

// UserSchema describes user accounts. The primary role classifies a user and
// permissions act as the tag list.
func UserSchema() Schema[models.User] {
	return Schema[models.User]{
		Kind: models.ResourceUsers,
		Fields: []Field[models.User]{
			StringField("id", func(u models.User) string { return u.ID }),
			StringField("name", func(u models.User) string { return u.Name }),
			StringField("email", func(u models.User) string { return u.Email }),
			StringField("role", func(u models.User) string { return u.PrimaryRole() }),
			ListField("roles", func(u models.User) []string { return u.Roles }),
			ListField("permissions", func(u models.User) []string { return u.Permissions }),
			NumberField("active", func(u models.User) float64 {
				if u.Active {
					return 1
				}
				return 0
			}),
			TimeField("last_login", func(u models.User) time.Time {
				if u.LastLogin == nil {
					return time.Time{}
				}
				return *u.LastLogin
			}),
			TimeField("created_at", func(u models.User) time.Time { return u.CreatedAt }),
		},
		Searchable: []string{"name", "email", "roles"},
		TypeField:  "role",
		TimeField:  "last_login",
		TagsField:  "permissions",
		Tabs:       []models.Tab{models.TabAll, models.TabRecent},
	}
}

// NodeSchema describes storage nodes.
func NodeSchema() Schema[models.Node] {
	return Schema[models.Node]{
		Kind: models.ResourceNodes,
		Fields: []Field[models.Node]{
			StringField("id", func(n models.Node) string { return n.ID }),
			StringField("name", func(n models.Node) string { return n.Name }),
			StringField("ip_address", func(n models.Node) string { return n.IPAddress }),
			StringField("status", func(n models.Node) string { return string(n.Status) }),
			StringField("node_type", func(n models.Node) string { return n.NodeType }),
			StringField("location", func(n models.Node) string { return n.Location }),
			NumberField("cpu_usage", func(n models.Node) float64 { return n.CPUUsage }),
			NumberField("memory_usage", func(n models.Node) float64 { return n.MemoryUsage }),
			NumberField("disk_usage", func(n models.Node) float64 { return n.DiskUsage }),
			NumberField("network_throughput", func(n models.Node) float64 { return n.NetworkThroughput }),
			IntField("active_connections", func(n models.Node) int64 { return int64(n.ActiveConnections) }),
			IntField("used_bytes", func(n models.Node) int64 { return n.UsedBytes }),
			IntField("capacity_bytes", func(n models.Node) int64 { return n.CapacityBytes }),
			IntField("uptime_seconds", func(n models.Node) int64 { return n.UptimeSeconds }),
			TimeField("last_updated", func(n models.Node) time.Time { return n.LastUpdated }),
		},
		Searchable: []string{"name", "ip_address", "location"},
		TypeField:  "node_type",
		TimeField:  "last_updated",
		SizeField:  "used_bytes",
		Tabs:       []models.Tab{models.TabAll, models.TabRecent},
	}
}
