/*Command bio-bigwig-stats prints per-bin statistics for one region of a
  bigWig or bigBed file, local or remote.

  Usage: bio-bigwig-stats --file=foo.bw --chrom=chr1 --start=0 --end=1000 --bins=10 --stat=mean
*/
package main
