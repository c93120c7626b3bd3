package media

// AssetType identifies one of the stored variants of an upload
type AssetType string

const (
	AssetTypeOriginal   AssetType = "original"
	AssetTypeCompressed AssetType = "compressed"
	AssetTypeThumbnail  AssetType = "thumbnail"
)
