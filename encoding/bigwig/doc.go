// Package bigwig reads bigWig and bigBed files: indexed, compressed,
// sorted binary containers of per-base quantitative signal (bigWig) or
// BED-style interval annotations (bigBed) over named chromosomes.
//
// A file is a balanced R-tree spatial index over compressed data blocks,
// a B+-tree mapping chromosome name to id and length, and (for bigWig)
// a pyramid of precomputed zoom summaries used to answer windowed
// statistics without touching full-resolution data. See
// https://genome.ucsc.edu/goldenPath/help/bigWig.html for the format
// this package implements.
//
// Only the read path is implemented. Writing bigWig/bigBed files is a
// separate concern and is not provided here.
package bigwig
