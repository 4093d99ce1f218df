package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Supported raster MIME types and metadata format labels. The two enums are
// validated independently of each other; a record may carry a fileType that
// does not agree with its metadata format.
var (
	AllowedFileTypes = map[string]bool{
		"image/tiff": true,
		"image/jpeg": true,
		"image/png":  true,
	}
	AllowedFormats = map[string]bool{
		"GeoTIFF": true,
		"JPEG":    true,
		"PNG":     true,
	}
)

// Coordinates is the geographic bounding box of a raster. All bounds are
// optional and no relationship between them is enforced.
type Coordinates struct {
	North *float64 `bson:"north,omitempty" json:"north,omitempty"`
	South *float64 `bson:"south,omitempty" json:"south,omitempty"`
	East  *float64 `bson:"east,omitempty" json:"east,omitempty"`
	West  *float64 `bson:"west,omitempty" json:"west,omitempty"`
}

type Metadata struct {
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Resolution  float64      `bson:"resolution" json:"resolution"`
	Format      string       `bson:"format" json:"format"`
}

// NDVIMap is a stored vegetation-index raster: capture metadata plus the
// raw file bytes, held inline in the document. FileData is excluded from
// JSON so listing and metadata responses never carry the payload; downloads
// and the GraphQL fileData field go through dedicated paths instead.
type NDVIMap struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CaptureDate time.Time          `bson:"captureDate" json:"captureDate"`
	FileData    []byte             `bson:"fileData" json:"-"`
	FileType    string             `bson:"fileType" json:"fileType"`
	Metadata    Metadata           `bson:"metadata" json:"metadata"`
	OwnerScope  Owner              `bson:"ownerScope" json:"ownerScope"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
