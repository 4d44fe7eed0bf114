// Package rendition defines the quality ladder, the on-disk layout of
// processed output, and the policy that picks which file to play.
//
// Layout under the processed root, per asset key:
//
//	{key}/mp4/{quality}.mp4
//	{key}/hls/master.m3u8
//	{key}/hls/{quality}/index.m3u8
//	{key}/hls/{quality}/seg_00000.ts ...
//	{key}/poster.jpg
//
// The ladder is fixed configuration and is not derived from the source.
package rendition
