package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Show kinds.
const (
	KindAnime = "anime"
	KindManga = "manga"
)

// Entry is a single episode or chapter of a show.
type Entry struct {
	Number int    `json:"number" bson:"number" yaml:"number"`
	Title  string `json:"title"  bson:"title"  yaml:"title"`
	Date   string `json:"date"   bson:"date"   yaml:"date"`
}

// Show is an anime or manga entry of the catalogue stored in MongoDB.
//
// Creator holds the author for manga and the studio for anime; Released holds
// the publication or airing period; Units is the volume or episode count.
type Show struct {
	ID       primitive.ObjectID `json:"-"        bson:"_id,omitempty" yaml:"-"`
	Kind     string             `json:"kind"     bson:"kind"          yaml:"kind"`
	Title    string             `json:"title"    bson:"title"         yaml:"title"`
	Rating   float64            `json:"rating"   bson:"rating"        yaml:"rating"`
	Genre    string             `json:"genre"    bson:"genre"         yaml:"genre"`
	Image    string             `json:"image"    bson:"image"         yaml:"image"`
	Synopsis string             `json:"synopsis" bson:"synopsis"      yaml:"synopsis"`
	Status   string             `json:"status"   bson:"status"        yaml:"status"`
	Creator  string             `json:"creator"  bson:"creator"       yaml:"creator"`
	Released string             `json:"released" bson:"released"      yaml:"released"`
	Units    int                `json:"units"    bson:"units"         yaml:"units"`
	Entries  []Entry            `json:"entries"  bson:"entries"       yaml:"entries"`
	Related  []string           `json:"related"  bson:"related"       yaml:"related"`
}
