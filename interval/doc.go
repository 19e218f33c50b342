/*Package interval implements interval-union scanning support used by
  encoding/bigwig to fill the gaps between a sorted run of on-disk value
  records with NaN when materializing a dense per-base view.
  It assumes every position fits in a PosType (int32), i.e. is at most
  2^31-1, although bigWig and bigBed data blocks store Start/End as uint32.
*/
package interval
