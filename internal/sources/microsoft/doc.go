// Package microsoft implements a lookup source for Microsoft products backed
// by a lifecycle table compiled into the binary.
//
// The table lists extended support end dates for Windows, Windows Server,
// SQL Server, Office, Exchange, SharePoint, Visual Studio and the .NET
// Framework. A product name naming a release ("SQL Server 2019") is an exact
// match. Failing that, a product family plus a build number prefix
// ("windows server", "10.0.17763.1") is a prefix match with lower confidence.
package microsoft
